// ABOUTME: Backup catalog for example collections — snapshot-before-mutate copies
// ABOUTME: Backup names embed domain key and a sortable second-resolution timestamp

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// backupTimeLayout produces names whose lexicographic order equals
// chronological order. List depends on this.
const backupTimeLayout = "20060102_150405"

// Backup is a handle to one immutable snapshot of a domain's collection.
type Backup struct {
	Name      string
	Timestamp time.Time
}

// Catalog manages point-in-time snapshots of collection files. Backups are
// pure accretion: nothing here ever deletes or overwrites one.
type Catalog struct {
	dataDir   string
	backupDir string
	now       func() time.Time
}

// NewCatalog creates a catalog over the given data and backup directories.
func NewCatalog(dataDir, backupDir string) *Catalog {
	return &Catalog{
		dataDir:   dataDir,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// collectionPath returns the persisted collection file for a domain.
func collectionPath(dataDir string, domain DomainKey) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s-examples.json", domain))
}

// backupName returns the file name for a snapshot taken at ts.
func backupName(domain DomainKey, ts time.Time) string {
	return fmt.Sprintf("%s-examples-%s.json", domain, ts.Format(backupTimeLayout))
}

// Snapshot copies the domain's current collection file verbatim into the
// backup directory. Returns the backup file name, or "" when no collection
// exists yet (nothing to preserve — not an error).
func (c *Catalog) Snapshot(domain DomainKey) (string, error) {
	src := collectionPath(c.dataDir, domain)
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("opening collection for backup: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(c.backupDir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	// Backups are never overwritten. A mutation in the same second as the
	// previous one collides on the second-resolution name; advance the
	// stamp until a free slot is found so name order stays chronological.
	ts := c.now()
	var name string
	var out *os.File
	for {
		name = backupName(domain, ts)
		out, err = os.OpenFile(filepath.Join(c.backupDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating backup file: %w", err)
		}
		ts = ts.Add(time.Second)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("copying collection to backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing backup file: %w", err)
	}
	return name, nil
}

// List returns all backups for a domain, most recent first. A missing or
// empty backup directory yields an empty slice.
func (c *Catalog) List(domain DomainKey) ([]Backup, error) {
	entries, err := os.ReadDir(c.backupDir)
	if os.IsNotExist(err) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	prefix := fmt.Sprintf("%s-examples-", domain)
	backups := []Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		ts, err := time.Parse(backupTimeLayout, stamp)
		if err != nil {
			// Foreign file that happens to share the prefix; skip it.
			continue
		}
		backups = append(backups, Backup{Name: name, Timestamp: ts})
	}

	// Name order equals time order by construction of backupTimeLayout.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Path returns the absolute location of a named backup inside the catalog.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.backupDir, name)
}
