package permission

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ghxstship/marketplace/model"
)

type directoryFile struct {
	Organizations map[string]struct {
		Members map[string]string `yaml:"members"`
		Vendors map[string]string `yaml:"vendors"`
	} `yaml:"organizations"`
}

// StaticDirectory resolves roles and vendor links from a YAML file. It
// suits development and single-tenant deployments where membership rarely
// changes; Sync picks up edits without a restart.
type StaticDirectory struct {
	path string
	mu   sync.RWMutex
	file directoryFile
}

// NewStaticDirectory loads the directory file at path.
func NewStaticDirectory(path string) (*StaticDirectory, error) {
	d := &StaticDirectory{path: path}
	if err := d.Sync(); err != nil {
		return nil, err
	}
	return d, nil
}

// OrgRole implements model.RoleDirectory.
func (d *StaticDirectory) OrgRole(orgID, userID string) (model.OrgRole, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	org, ok := d.file.Organizations[orgID]
	if !ok {
		return "", nil
	}
	return model.OrgRole(org.Members[userID]), nil
}

// Vendor implements model.RoleDirectory.
func (d *StaticDirectory) Vendor(orgID, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	org, ok := d.file.Organizations[orgID]
	if !ok {
		return "", nil
	}
	return org.Vendors[userID], nil
}

// Sync reloads the directory file from disk.
func (d *StaticDirectory) Sync() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("permission: reading directory file %s: %w", d.path, err)
	}

	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("permission: parsing directory file %s: %w", d.path, err)
	}

	for _, org := range f.Organizations {
		for user, role := range org.Members {
			switch model.OrgRole(role) {
			case model.RoleOwner, model.RoleAdmin, model.RoleManager, model.RoleMember:
			default:
				return fmt.Errorf("permission: directory file %s: user %s has unknown role %q",
					d.path, user, role)
			}
		}
	}

	d.mu.Lock()
	d.file = f
	d.mu.Unlock()
	return nil
}
