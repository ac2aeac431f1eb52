package contacts

import "time"

// Contact is a counterparty of the workspace: a customer or supplier that
// documents and cashflow entries book against.
type Contact struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"-"`
	Name        string    `json:"name"`
	VATNumber   string    `json:"vatNumber"`
	IBAN        string    `json:"iban"`
	Email       string    `json:"email"`
	CountryCode string    `json:"countryCode"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
