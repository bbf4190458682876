package core

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	appfs "github.com/trezcool/gradebook/fs"
)

// Catalog lists the options offered to users: grade levels, subjects, genders and nationalities.
type Catalog struct {
	GradeLevels   []string `toml:"grade_levels" json:"grade_levels"`
	Subjects      []string `toml:"subjects" json:"subjects"`
	Genders       []string `toml:"genders" json:"genders"`
	Nationalities []string `toml:"nationalities" json:"nationalities"`
}

// DefaultCatalog returns the catalog bundled with the application.
func DefaultCatalog() Catalog {
	data, err := appfs.FS.ReadFile("catalog.toml")
	if err != nil {
		panic(errors.Wrap(err, "reading bundled catalog"))
	}
	var cat Catalog
	if err := toml.Unmarshal(data, &cat); err != nil {
		panic(errors.Wrap(err, "parsing bundled catalog"))
	}
	return cat
}

// LoadCatalog reads a TOML catalog from path. Sections missing from the file keep their default values.
// An empty path returns the DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Wrap(err, "reading catalog")
	}
	var custom Catalog
	if err := toml.Unmarshal(data, &custom); err != nil {
		return Catalog{}, errors.Wrap(err, "parsing catalog")
	}

	if len(custom.GradeLevels) > 0 {
		cat.GradeLevels = custom.GradeLevels
	}
	if len(custom.Subjects) > 0 {
		cat.Subjects = custom.Subjects
	}
	if len(custom.Genders) > 0 {
		cat.Genders = custom.Genders
	}
	if len(custom.Nationalities) > 0 {
		cat.Nationalities = custom.Nationalities
	}
	return cat, nil
}

func (c Catalog) HasGradeLevel(s string) bool  { return ContainsString(c.GradeLevels, s) }
func (c Catalog) HasSubject(s string) bool     { return ContainsString(c.Subjects, s) }
func (c Catalog) HasGender(s string) bool      { return ContainsString(c.Genders, s) }
func (c Catalog) HasNationality(s string) bool { return ContainsString(c.Nationalities, s) }
