package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var fileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	markerUp    = "-- +goose Up"
	markerDown  = "-- +goose Down"
	markerBegin = "-- +goose StatementBegin"
	markerEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks the migrations under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(Files, EmbeddedDir)
}

// ValidateFS requires every .sql file under dir to be named
// <14 digit version>_<slug>.sql with a unique version, to declare Up before
// Down, to carry a statement in the Up section, and to balance its
// StatementBegin/End markers.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[m[1]]; dup {
			return fmt.Errorf("%s: version %s already used by %s", name, m[1], prev)
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := checkSQL(string(body)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations in %s", dir)
	}
	return nil
}

func checkSQL(txt string) error {
	up := strings.Index(txt, markerUp)
	down := strings.Index(txt, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", markerUp)
	case down < 0:
		return fmt.Errorf("missing %q", markerDown)
	case down < up:
		return fmt.Errorf("%q must come before %q", markerUp, markerDown)
	}
	if strings.Count(txt, markerBegin) != strings.Count(txt, markerEnd) {
		return fmt.Errorf("unbalanced StatementBegin/StatementEnd")
	}
	if !hasStatement(txt[up+len(markerUp) : down]) {
		return fmt.Errorf("up section has no statements")
	}
	return nil
}

func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}
