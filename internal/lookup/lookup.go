// ABOUTME: Interfaces for user and machine master-data collaborators
// ABOUTME: Includes static in-memory implementations for tests and offline use

package lookup

import "context"

// Contact identifies the person a ticket notification is addressed to.
type Contact struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

// Machine is the master-data record for a machine.
type Machine struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// UserLookup resolves user master data.
type UserLookup interface {
	// GetUserLanguage returns the user's preferred language code.
	// credential is the caller's token; when empty, implementations use
	// their own service credential.
	GetUserLanguage(ctx context.Context, userID, credential string) (string, error)
	GetUserContact(ctx context.Context, userID string) (*Contact, error)
}

// MachineLookup resolves machine master data.
type MachineLookup interface {
	// GetMachine returns nil (and no error) when the machine is absent.
	GetMachine(ctx context.Context, machineID string) (*Machine, error)
}

// StaticLookup is an in-memory UserLookup/MachineLookup for tests and the CLI.
type StaticLookup struct {
	Languages map[string]string
	Contacts  map[string]*Contact
	Machines  map[string]*Machine
}

func (s *StaticLookup) GetUserLanguage(ctx context.Context, userID, credential string) (string, error) {
	if code, ok := s.Languages[userID]; ok {
		return code, nil
	}
	return "en", nil
}

func (s *StaticLookup) GetUserContact(ctx context.Context, userID string) (*Contact, error) {
	if c, ok := s.Contacts[userID]; ok {
		return c, nil
	}
	return &Contact{Name: userID}, nil
}

func (s *StaticLookup) GetMachine(ctx context.Context, machineID string) (*Machine, error) {
	return s.Machines[machineID], nil
}
