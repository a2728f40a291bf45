package leadgen

import (
	"fmt"
	"strings"
)

// NewLead trims the given fields and fills in the defaults. Name is the only required field.
func NewLead(name, company, title, email string, annualRevenue int64) (Lead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Lead{}, ErrEmptyName
	}

	l := Lead{
		Name:          name,
		Company:       strings.TrimSpace(company),
		Title:         strings.TrimSpace(title),
		Email:         strings.TrimSpace(email),
		AnnualRevenue: annualRevenue,
	}
	l.applyDefaults()
	return l, nil
}

// Normalize runs an already decoded lead (e.g. from a JSON body) through NewLead
func (l Lead) Normalize() (Lead, error) {
	return NewLead(l.Name, l.Company, l.Title, l.Email, l.AnnualRevenue)
}

func (l *Lead) applyDefaults() {
	if l.Company == "" {
		l.Company = l.Name
	}
	if l.Title == "" {
		l.Title = DefaultLeadTitle
	}
	if l.Email == "" {
		l.Email = emailFromName(l.Name)
	}
	if l.AnnualRevenue < 0 {
		l.AnnualRevenue = 0
	}
}

// emailFromName turns "Alex Johnson" into "alex.johnson@example.com"
func emailFromName(name string) string {
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return fmt.Sprintf("%s@%s", local, defaultEmailDomain)
}

// SampleLeads are the leads every new session starts with.
func SampleLeads() []Lead {
	return []Lead{
		{
			Name:          "Alex Johnson",
			Company:       "TechCorp",
			Title:         "CEO",
			Email:         "alex@techcorp.com",
			AnnualRevenue: 5_000_000,
		},
		{
			Name:          "Sarah Chen",
			Company:       "InnovateLabs",
			Title:         "CTO",
			Email:         "sarah@innovatelabs.com",
			AnnualRevenue: 2_500_000,
		},
	}
}

// LeadList is an insertion ordered list of leads. The zero value is an empty list.
// It is not safe for concurrent use; the session that owns it serializes access.
type LeadList struct {
	leads []Lead
}

func NewLeadList(leads ...Lead) *LeadList {
	l := &LeadList{}
	l.leads = append(l.leads, leads...)
	return l
}

func (l *LeadList) Append(lead Lead) {
	l.leads = append(l.leads, lead)
}

// Remove drops the lead at index and returns it.
func (l *LeadList) Remove(index int) (Lead, error) {
	if index < 0 || index >= len(l.leads) {
		return Lead{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(l.leads))
	}
	removed := l.leads[index]
	l.leads = append(l.leads[:index:index], l.leads[index+1:]...)
	return removed, nil
}

func (l *LeadList) Len() int {
	return len(l.leads)
}

// Leads returns a copy of the list
func (l *LeadList) Leads() []Lead {
	out := make([]Lead, len(l.leads))
	copy(out, l.leads)
	return out
}
