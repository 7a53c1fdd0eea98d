package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CodeAcquirer obtains an authorization code for the given authorization URL
type CodeAcquirer interface {
	ObtainCode(ctx context.Context, authURL string) (string, error)
}

// ManualAcquirer prints the URL and reads the code pasted by the operator
type ManualAcquirer struct {
	In  io.Reader
	Out io.Writer
}

// ObtainCode blocks until a line is read from In. The line may be the bare
// code or the full redirect URL copied from the browser.
func (m *ManualAcquirer) ObtainCode(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintln(m.Out, "Go to the following link in your browser, then paste the authorization code:")
	fmt.Fprintln(m.Out, authURL)
	fmt.Fprint(m.Out, "Code: ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(m.In)
		if scanner.Scan() {
			lines <- scanner.Text()
			return
		}
		if err := scanner.Err(); err != nil {
			errs <- err
			return
		}
		errs <- io.ErrUnexpectedEOF
	}()

	select {
	case line := <-lines:
		code := codeFromInput(line)
		if code == "" {
			return "", &Error{Op: "read code", Err: errors.New("no authorization code entered")}
		}
		return code, nil
	case err := <-errs:
		return "", &Error{Op: "read code", Err: err}
	case <-ctx.Done():
		return "", &Error{Op: "read code", Err: ctx.Err()}
	}
}

// codeFromInput accepts either a raw code or a URL carrying ?code=
func codeFromInput(input string) string {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "code=") {
		if u, err := url.Parse(input); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	return input
}

// CallbackAcquirer runs a short-lived local HTTP listener that captures the
// code from the provider's redirect
type CallbackAcquirer struct {
	Addr        string // listen address, e.g. "localhost:3000"
	Path        string // callback path, e.g. "/oauth2callback"
	Timeout     time.Duration
	OpenBrowser func(url string) error // nil: only print the URL
	Out         io.Writer
	Log         zerolog.Logger

	onStop func() // test hook, called once the listener is stopped
}

const successPage = `<html><body><h1>Authentication successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`

const failurePage = `<html><body><h1>Authentication failed</h1><p>%s</p><p>Return to the terminal for details.</p></body></html>`

type callbackResult struct {
	code string
	err  error
}

// ObtainCode binds the listener, opens the URL and waits for exactly one
// redirect. The listener is stopped once on every return path.
func (a *CallbackAcquirer) ObtainCode(ctx context.Context, authURL string) (string, error) {
	ln, err := net.Listen("tcp", a.Addr)
	if err != nil {
		return "", &Error{Op: "listen", Err: fmt.Errorf("failed to start callback listener on %s: %w", a.Addr, err)}
	}

	wantState := stateFrom(authURL)

	results := make(chan callbackResult, 1)
	var settle sync.Once
	finish := func(r callbackResult) {
		settle.Do(func() { results <- r })
	}

	mux := http.NewServeMux()
	mux.HandleFunc(a.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		var cbErr error
		switch {
		case q.Get("error") != "":
			cbErr = fmt.Errorf("provider returned error: %s", q.Get("error"))
		case wantState != "" && q.Get("state") != wantState:
			cbErr = errors.New("invalid state parameter")
		case q.Get("code") == "":
			cbErr = errors.New("no code in callback")
		}

		if cbErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, failurePage, cbErr.Error())
			finish(callbackResult{err: &Error{Op: "callback", Err: cbErr}})
			return
		}

		fmt.Fprint(w, successPage)
		finish(callbackResult{code: q.Get("code")})
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			// Shutdown lets the in-flight response reach the browser
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				_ = server.Close()
			}
			if a.onStop != nil {
				a.onStop()
			}
		})
	}
	defer stop()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			finish(callbackResult{err: &Error{Op: "serve", Err: err}})
		}
	}()

	if a.Out != nil {
		fmt.Fprintln(a.Out, "Opening browser for Google authentication...")
		fmt.Fprintln(a.Out, "If browser doesn't open, visit this URL:")
		fmt.Fprintln(a.Out, authURL)
		fmt.Fprintln(a.Out)
	}

	if a.OpenBrowser != nil {
		if err := a.OpenBrowser(authURL); err != nil {
			a.Log.Warn().Err(err).Msg("could not open browser")
		}
	}

	var timeout <-chan time.Time
	if a.Timeout > 0 {
		timer := time.NewTimer(a.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-results:
		return r.code, r.err
	case <-ctx.Done():
		return "", &Error{Op: "callback", Err: ctx.Err()}
	case <-timeout:
		return "", &Error{Op: "callback", Err: fmt.Errorf("no redirect received within %s", a.Timeout)}
	}
}

// stateFrom extracts the state parameter embedded in the authorization URL
func stateFrom(authURL string) string {
	u, err := url.Parse(authURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("state")
}
