package gmail

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

func strp(s string) *string { return &s }

func TestExtract(t *testing.T) {
	f := newFakeGmail(t)
	f.add("full", fakeMessage{
		Headers: []fakeHeader{
			{Name: "To", Value: "a@x.com"},
			{Name: "Date", Value: "Sun, 10 Mar 2024 09:30:00 +0000"},
		},
		InternalDate: "1710063000000",
	})
	f.add("no-to", fakeMessage{
		Headers: []fakeHeader{{Name: "Date", Value: "Mon, 11 Mar 2024 10:00:00 +0000"}},
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	t.Run("all fields", func(t *testing.T) {
		r := c.Extract(ctx, email.MessageRef{ID: "full"})
		be.Equal(t, r.Error, (*string)(nil))
		be.Equal(t, *r.To, "a@x.com")
		be.Equal(t, *r.Date, "Sun, 10 Mar 2024 09:30:00 +0000")
		be.Equal(t, *r.InternalDate, int64(1710063000000))
	})

	t.Run("missing To header", func(t *testing.T) {
		r := c.Extract(ctx, email.MessageRef{ID: "no-to"})
		be.Equal(t, r.Error, (*string)(nil))
		be.Equal(t, r.To, (*string)(nil))
		be.Equal(t, *r.Date, "Mon, 11 Mar 2024 10:00:00 +0000")
		be.Equal(t, r.InternalDate, (*int64)(nil))
	})

	t.Run("fetch failure", func(t *testing.T) {
		r := c.Extract(ctx, email.MessageRef{ID: "gone"})
		be.Equal(t, r.ID, "gone")
		be.True(t, r.Error != nil)
		be.Equal(t, r.To, (*string)(nil))
		be.Equal(t, r.Date, (*string)(nil))
		be.Equal(t, r.InternalDate, (*int64)(nil))
	})

	for _, format := range f.formats {
		be.Equal(t, format, "metadata")
	}
}

func TestFindHeader(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "to", Value: "lower@x.com"},
		{Name: "To", Value: "first@x.com"},
		{Name: "To", Value: "second@x.com"},
	}

	be.Equal(t, *findHeader(headers, "To"), "first@x.com")
	be.Equal(t, findHeader(headers, "TO"), (*string)(nil))
	be.Equal(t, findHeader(nil, "Date"), (*string)(nil))
}

func TestConvertMessage_NoPayload(t *testing.T) {
	r := convertMessage("m1", &gmail.Message{Id: "m1", InternalDate: 42})
	be.Equal(t, r, email.Record{ID: "m1", InternalDate: func() *int64 { v := int64(42); return &v }()})
}

func TestExtractAll_IsolatesFailures(t *testing.T) {
	f := newFakeGmail(t)
	f.add("a", fakeMessage{Headers: []fakeHeader{{Name: "To", Value: "a@x.com"}}})
	f.add("b", fakeMessage{Status: http.StatusInternalServerError})
	f.add("c", fakeMessage{Headers: []fakeHeader{{Name: "To", Value: "c@x.com"}}})
	c := newTestClient(t, f)

	refs := []email.MessageRef{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	records := c.ExtractAll(context.Background(), refs, email.ExtractOptions{})

	be.Equal(t, len(records), 3)
	be.Equal(t, records[0].ID, "a")
	be.Equal(t, *records[0].To, "a@x.com")
	be.Equal(t, records[1].ID, "b")
	be.True(t, records[1].Failed())
	be.Equal(t, records[1].To, (*string)(nil))
	be.Equal(t, records[2].ID, "c")
	be.Equal(t, *records[2].To, "c@x.com")
}

func TestExtractAll_OrderIndependent(t *testing.T) {
	f := newFakeGmail(t)
	var refs []email.MessageRef
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("m%02d", i)
		m := fakeMessage{
			Headers:      []fakeHeader{{Name: "To", Value: id + "@x.com"}},
			InternalDate: fmt.Sprintf("%d", 1710000000000+i),
		}
		if i%5 == 0 {
			m.Status = http.StatusForbidden
		}
		f.add(id, m)
		refs = append(refs, email.MessageRef{ID: id})
	}
	c := newTestClient(t, f)
	ctx := context.Background()

	byID := func(records []email.Record) map[string]email.Record {
		out := make(map[string]email.Record, len(records))
		for _, r := range records {
			out[r.ID] = r
		}
		return out
	}

	first := byID(c.ExtractAll(ctx, refs, email.ExtractOptions{}))

	shuffled := append([]email.MessageRef(nil), refs...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	records := c.ExtractAll(ctx, shuffled, email.ExtractOptions{MaxInFlight: 3})

	for i, r := range records {
		be.Equal(t, r.ID, shuffled[i].ID)
	}
	be.Equal(t, byID(records), first)
}

func TestExtractAll_MaxInFlight(t *testing.T) {
	f := newFakeGmail(t)
	var refs []email.MessageRef
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("m%d", i)
		f.add(id, fakeMessage{Delay: 20 * time.Millisecond})
		refs = append(refs, email.MessageRef{ID: id})
	}
	c := newTestClient(t, f)

	var calls []int
	records := c.ExtractAll(context.Background(), refs, email.ExtractOptions{
		MaxInFlight: 2,
		Progress: func(done, total int) {
			be.Equal(t, total, 12)
			calls = append(calls, done)
		},
	})

	be.Equal(t, len(records), 12)
	be.True(t, f.peak.Load() <= 2)
	be.Equal(t, len(calls), 12)
	for i, done := range calls {
		be.Equal(t, done, i+1)
	}
}

func TestExtractAll_RequestTimeout(t *testing.T) {
	f := newFakeGmail(t)
	f.add("slow", fakeMessage{Delay: 2 * time.Second})
	f.add("fast", fakeMessage{Headers: []fakeHeader{{Name: "Date", Value: "today"}}})
	c := newTestClient(t, f)

	records := c.ExtractAll(context.Background(),
		[]email.MessageRef{{ID: "slow"}, {ID: "fast"}},
		email.ExtractOptions{RequestTimeout: 100 * time.Millisecond},
	)

	be.True(t, records[0].Failed())
	be.Equal(t, records[1].Date, strp("today"))
}

func TestExtractAll_Empty(t *testing.T) {
	c := newTestClient(t, newFakeGmail(t))
	records := c.ExtractAll(context.Background(), nil, email.ExtractOptions{})
	be.Equal(t, len(records), 0)
}
