package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

// MappingWarning reports a mapping file that could not be used. It is not fatal.
type MappingWarning struct {
	Path string
	Err  error
}

func (w *MappingWarning) Error() string {
	return fmt.Sprintf("phone mapping %s unavailable: %v", w.Path, w.Err)
}

func (w *MappingWarning) Unwrap() error {
	return w.Err
}

// LoadMapping reads a JSON object of recipient address to phone number.
// On any failure it returns an empty mapping and a *MappingWarning.
func LoadMapping(path string) (map[string]string, error) {
	mapping := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		return mapping, &MappingWarning{Path: path, Err: err}
	}

	if err := json.Unmarshal(data, &mapping); err != nil {
		return make(map[string]string), &MappingWarning{Path: path, Err: fmt.Errorf("invalid JSON object: %w", err)}
	}

	return mapping, nil
}

// CrossReference returns the phone number of every record whose recipient
// is a mapping key, in record order. Duplicates are kept.
func CrossReference(records []email.Record, mapping map[string]string) []string {
	phones := []string{}
	for _, r := range records {
		if r.To == nil {
			continue
		}
		if phone, ok := mapping[*r.To]; ok {
			phones = append(phones, phone)
		}
	}
	return phones
}
