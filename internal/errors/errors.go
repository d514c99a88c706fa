// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ErrNoEligibleRecipients: the target LGAs contained no phone-bearing voters.
// Nothing is persisted when this is returned.
type ErrNoEligibleRecipients struct {
    LGAs []string
}

func (e *ErrNoEligibleRecipients) Error() string {
    return fmt.Sprintf("no eligible recipients in target LGAs %v", e.LGAs)
}

func NewNoEligibleRecipients(lgas []string) error {
    return &ErrNoEligibleRecipients{LGAs: lgas}
}

type ErrAudioAssetNotFound struct {
    AssetID int
}

func (e *ErrAudioAssetNotFound) Error() string {
    return fmt.Sprintf("audio asset with ID %d not found", e.AssetID)
}

func NewAudioAssetNotFound(id int) error {
    return &ErrAudioAssetNotFound{AssetID: id}
}

// ErrValidation covers malformed create-campaign input (bad channel, missing
// template or audio reference). Handlers map it to a 400.
type ErrValidation struct {
    Field  string
    Reason string
}

func (e *ErrValidation) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
    return &ErrValidation{Field: field, Reason: reason}
}

// ErrCampaignTerminal: an administrative action hit a campaign that already
// reached a terminal status. Handlers map it to a 409.
type ErrCampaignTerminal struct {
    CampaignID int
    Status     string
}

func (e *ErrCampaignTerminal) Error() string {
    return fmt.Sprintf("campaign %d is already %s", e.CampaignID, e.Status)
}

func NewCampaignTerminal(id int, status string) error {
    return &ErrCampaignTerminal{CampaignID: id, Status: status}
}
