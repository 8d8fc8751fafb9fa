package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/streamline/internal/project"
)

// maxSeedSize is the largest seed file accepted.
const maxSeedSize = 1024 * 1024

// Seed is the YAML document loaded into a fresh store.
//
//	projects:
//	  - id: "1"
//	    name: Streamline
//	    tasks:
//	      - id: "7"
//	        title: Write docs
//	        status: todo
//	        assigned_to: {id: "u1", name: Ada}
type Seed struct {
	Projects []SeedProject `yaml:"projects"`
}

// SeedProject is a project entry in a seed file.
type SeedProject struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tasks       []SeedTask `yaml:"tasks"`
}

// SeedTask is a task entry in a seed file.
type SeedTask struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Status      string    `yaml:"status"`
	AssignedTo  *SeedUser `yaml:"assigned_to"`
}

// SeedUser is an assignee in a seed file.
type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(io.LimitReader(r, maxSeedSize))
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads a seed file from disk.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// Apply creates every seeded project in s.
func (seed *Seed) Apply(ctx context.Context, s *Store) error {
	for i, sp := range seed.Projects {
		in := NewProject{
			ID:          project.ID(sp.ID),
			Name:        sp.Name,
			Description: sp.Description,
		}
		for _, st := range sp.Tasks {
			t := project.Task{
				ID:          project.ID(st.ID),
				Title:       st.Title,
				Description: st.Description,
			}
			if st.Status != "" {
				status, err := project.ParseStatus(st.Status)
				if err != nil {
					return fmt.Errorf("seed project %d task %q: %w", i, st.Title, err)
				}
				t.Status = status
			}
			if st.AssignedTo != nil {
				t.AssignedTo = &project.User{
					ID:    project.ID(st.AssignedTo.ID),
					Name:  st.AssignedTo.Name,
					Email: st.AssignedTo.Email,
				}
			}
			in.Tasks = append(in.Tasks, t)
		}
		if _, err := s.CreateProject(ctx, in); err != nil {
			return fmt.Errorf("seed project %d: %w", i, err)
		}
	}
	return nil
}
