package pdf

import (
	"errors"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrPasswordRequired is returned when a document is encrypted and the
// supplied credentials (if any) do not open it.
var ErrPasswordRequired = errors.New("pdf is password protected")

// Credentials contains the passwords for a PDF file.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// configuration builds a pdfcpu configuration carrying the passwords. A nil
// receiver yields the defaults.
func (c *Credentials) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if c != nil {
		conf.UserPW = c.UserPassword
		conf.OwnerPW = c.OwnerPassword
	}
	return conf
}

// IsPasswordError checks if an error is related to password/encryption issues.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPasswordRequired) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
