package catalog

type RoleID string

const (
	Thinker    RoleID = "Thinker"
	Researcher RoleID = "Researcher"
	Writer     RoleID = "Writer"
	Director   RoleID = "Director"
	Shooter    RoleID = "Shooter"
	Editor     RoleID = "Editor"
	Designer   RoleID = "Designer"
	Publisher  RoleID = "Publisher"
	Observer   RoleID = "Observer"
)

// FixedRoles is the closed set of personas. A catalog file may reorder or
// relabel them but never add or drop one.
var FixedRoles = []RoleID{Thinker, Researcher, Writer, Director, Shooter, Editor, Designer, Publisher, Observer}

func (id RoleID) Valid() bool {
	for _, r := range FixedRoles {
		if r == id {
			return true
		}
	}
	return false
}

type Role struct {
	ID          RoleID `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description" yaml:"description"`
}

type TaskTemplate struct {
	Role             RoleID `yaml:"role"`
	EstimatedMinutes int    `yaml:"estimated_minutes"`
}

type SeedTask struct {
	ID               string `yaml:"id"`
	Role             RoleID `yaml:"role"`
	Title            string `yaml:"title"`
	Status           string `yaml:"status"`
	EstimatedMinutes int    `yaml:"estimated_minutes"`
}

type SeedProject struct {
	ID    string     `yaml:"id"`
	Title string     `yaml:"title"`
	Tasks []SeedTask `yaml:"tasks"`
}
