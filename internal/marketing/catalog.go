package marketing

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"rotchain-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// Catalog reads promotions from a JSON array on disk. The file is re-read on
// every Load so edits show up without a restart.
type Catalog struct {
	path string
}

func NewCatalog(path string) *Catalog {
	if path == "" {
		path = "airdrops.json"
	}
	return &Catalog{path: path}
}

func (c *Catalog) Path() string {
	return c.path
}

// Load never fails: a missing file, unreadable JSON or a non-array document
// all produce an empty catalog.
func (c *Catalog) Load() []domain.Promotion {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logrus.WithError(err).Warnf("Failed to read %s", c.path)
		}
		return []domain.Promotion{}
	}

	var items []domain.Promotion
	if err := json.Unmarshal(data, &items); err != nil {
		logrus.WithError(err).Warnf("Failed to parse %s", c.path)
		return []domain.Promotion{}
	}
	if items == nil {
		return []domain.Promotion{}
	}
	return items
}
