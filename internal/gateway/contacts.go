package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

// WildApricotContactRepository resolves the blast recipient list from the
// account's contact collection.
type WildApricotContactRepository struct {
	client  *Client
	groupID int64
}

// NewWildApricotContactRepository creates a contact repository for the given
// blast group.
func NewWildApricotContactRepository(client *Client, groupID int64) *WildApricotContactRepository {
	return &WildApricotContactRepository{
		client:  client,
		groupID: groupID,
	}
}

// waContact is the slice of the remote contact record the blast needs.
type waContact struct {
	ID        int64  `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
}

type waContactsResponse struct {
	Contacts []waContact `json:"Contacts"`
}

// GetRecipients returns one recipient per active member of the blast group,
// preserving the order the API returns them in. The server evaluates the
// status/group filter; no dedup happens here, a contact repeated in the
// backing data would be repeated in the list.
func (r *WildApricotContactRepository) GetRecipients(ctx context.Context) ([]domain.Recipient, error) {
	filter := fmt.Sprintf("'Status' eq 'Active' AND 'Group participation' eq %d", r.groupID)

	contacts, err := fetchAllPages(r.client.pageSize, func(offset int) ([]waContact, error) {
		query := url.Values{}
		query.Set("$async", "false")
		query.Set("$filter", filter)
		query.Set("$top", strconv.Itoa(r.client.pageSize))
		query.Set("$skip", strconv.Itoa(offset))

		var resp waContactsResponse
		if err := r.client.getJSON(ctx, r.client.accountURL("/contacts")+"?"+query.Encode(), &resp); err != nil {
			return nil, err
		}
		return resp.Contacts, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing contacts: %v", domain.ErrFetch, err)
	}

	recipients := make([]domain.Recipient, 0, len(contacts))
	for _, contact := range contacts {
		recipient, err := convertToRecipient(contact)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// convertToRecipient maps a remote contact to a send recipient.
func convertToRecipient(contact waContact) (domain.Recipient, error) {
	if contact.ID == 0 {
		return domain.Recipient{}, fmt.Errorf("%w: contact without an Id", domain.ErrMalformedRecord)
	}
	if contact.Email == "" {
		return domain.Recipient{}, fmt.Errorf("%w: contact %d has no email", domain.ErrMalformedRecord, contact.ID)
	}

	return domain.Recipient{
		ID:    contact.ID,
		Type:  domain.RecipientTypeIndividual,
		Name:  contact.FirstName + " " + contact.LastName,
		Email: contact.Email,
	}, nil
}
