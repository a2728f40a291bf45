package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

type seedFile struct {
	Leads []leadgen.Lead `yaml:"leads"`
}

// LoadSeedLeads reads the leads new sessions start with from a YAML file:
//
//	leads:
//	  - name: Alex Johnson
//	    company: TechCorp
//	    title: CEO
//	    annual_revenue: 5000000
//
// Every lead goes through leadgen.NewLead, so the usual defaults apply.
func LoadSeedLeads(path string) ([]leadgen.Lead, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseSeedLeads(b)
}

func ParseSeedLeads(b []byte) ([]leadgen.Lead, error) {
	f := seedFile{}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed leads: %w", err)
	}

	leads := make([]leadgen.Lead, 0, len(f.Leads))
	for i, l := range f.Leads {
		n, err := l.Normalize()
		if err != nil {
			return nil, fmt.Errorf("seed lead %d: %w", i, err)
		}
		leads = append(leads, n)
	}
	return leads, nil
}
