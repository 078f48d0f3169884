package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the static, read-only description of roles, the project task
// template and the projects every new workspace starts with.
type Catalog struct {
	Roles            []Role         `yaml:"roles"`
	DefaultUserRoles []RoleID       `yaml:"default_user_roles"`
	Template         []TaskTemplate `yaml:"template"`
	Projects         []SeedProject  `yaml:"projects"`
}

func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func LoadFile(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(b)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Roles) != len(FixedRoles) {
		return fmt.Errorf("%w: expected %d roles, got %d", ErrInvalidCatalog, len(FixedRoles), len(c.Roles))
	}
	seen := make(map[RoleID]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		if !r.ID.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidCatalog, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidCatalog, r.ID)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: role %q has no name", ErrInvalidCatalog, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, id := range c.DefaultUserRoles {
		if !id.Valid() {
			return fmt.Errorf("%w: unknown default user role %q", ErrInvalidCatalog, id)
		}
	}

	// A new project gets exactly one task per role.
	templateRoles := make(map[RoleID]struct{}, len(c.Template))
	for _, t := range c.Template {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: unknown template role %q", ErrInvalidCatalog, t.Role)
		}
		if _, dup := templateRoles[t.Role]; dup {
			return fmt.Errorf("%w: duplicate template role %q", ErrInvalidCatalog, t.Role)
		}
		if t.EstimatedMinutes < 0 {
			return fmt.Errorf("%w: negative estimate for %q", ErrInvalidCatalog, t.Role)
		}
		templateRoles[t.Role] = struct{}{}
	}
	for _, id := range FixedRoles {
		if _, ok := templateRoles[id]; !ok {
			return fmt.Errorf("%w: task template has no entry for %q", ErrInvalidCatalog, id)
		}
	}

	projectIDs := make(map[string]struct{}, len(c.Projects))
	for _, p := range c.Projects {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: seed project without id", ErrInvalidCatalog)
		}
		if _, dup := projectIDs[p.ID]; dup {
			return fmt.Errorf("%w: duplicate project id %q", ErrInvalidCatalog, p.ID)
		}
		projectIDs[p.ID] = struct{}{}
		taskIDs := make(map[string]struct{}, len(p.Tasks))
		for _, t := range p.Tasks {
			if strings.TrimSpace(t.ID) == "" {
				return fmt.Errorf("%w: task without id in project %q", ErrInvalidCatalog, p.ID)
			}
			if _, dup := taskIDs[t.ID]; dup {
				return fmt.Errorf("%w: duplicate task id %q in project %q", ErrInvalidCatalog, t.ID, p.ID)
			}
			taskIDs[t.ID] = struct{}{}
			if !t.Role.Valid() {
				return fmt.Errorf("%w: task %q has unknown role %q", ErrInvalidCatalog, t.ID, t.Role)
			}
		}
	}
	return nil
}

// Role looks up a role by id.
func (c *Catalog) Role(id RoleID) (Role, bool) {
	for _, r := range c.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// First is the role a fresh session starts in.
func (c *Catalog) First() Role {
	return c.Roles[0]
}

func (c *Catalog) RoleIDs() []RoleID {
	out := make([]RoleID, 0, len(c.Roles))
	for _, r := range c.Roles {
		out = append(out, r.ID)
	}
	return out
}
