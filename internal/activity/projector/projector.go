// Package projector derives the activity feed from final entity state.
// Nothing is stored; the feed is recomputed on every read and event ids are
// derived from the source entity so repeated reads agree.
package projector

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	credModels "verifyx/internal/credential/models"
	docModels "verifyx/internal/document/models"
	idModels "verifyx/internal/identity/models"
)

type EventType string

const (
	EventAccountCreated    EventType = "account_created"
	EventDIDRegistered     EventType = "did_registered"
	EventWalletConnected   EventType = "wallet_connected"
	EventDocumentUpload    EventType = "document_upload"
	EventDocumentVerified  EventType = "document_verified"
	EventDocumentRejected  EventType = "document_rejected"
	EventCredentialIssued  EventType = "credential_issued"
	EventCredentialRevoked EventType = "credential_revoked"
)

const defaultIssuerName = "VerifyX"

type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	Meta        map[string]any `json:"meta"`
}

type Stats struct {
	Total       int `json:"total"`
	Documents   int `json:"documents"`
	Credentials int `json:"credentials"`
	Scans       int `json:"scans"`
}

type Feed struct {
	Events []Event `json:"events"`
	Stats  Stats   `json:"stats"`
}

type Input struct {
	User        *idModels.User
	Documents   []*docModels.Document
	Credentials []*credModels.Credential
}

// Project merges account, document and credential events newest first.
// Events with equal dates keep their source order: account events, then
// documents by creation, then credentials by issuance.
func Project(in Input) Feed {
	docs := visibleDocuments(in.Documents)
	creds := append([]*credModels.Credential(nil), in.Credentials...)
	sort.SliceStable(creds, func(i, j int) bool { return creds[i].IssuedAt.Before(creds[j].IssuedAt) })

	var events []Event
	if in.User != nil {
		events = append(events, userEvents(in.User)...)
	}
	for _, d := range docs {
		events = append(events, documentEvents(d)...)
	}
	scans := 0
	for _, c := range creds {
		events = append(events, credentialEvents(c)...)
		scans += c.Usage.VerifyCount
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	if events == nil {
		events = []Event{}
	}
	return Feed{
		Events: events,
		Stats: Stats{
			Total:       len(events),
			Documents:   len(docs),
			Credentials: len(creds),
			Scans:       scans,
		},
	}
}

func visibleDocuments(in []*docModels.Document) []*docModels.Document {
	out := make([]*docModels.Document, 0, len(in))
	for _, d := range in {
		if !d.IsDeleted {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func userEvents(u *idModels.User) []Event {
	uid := u.ID.String()
	events := []Event{{
		ID:          "account_" + uid,
		Type:        EventAccountCreated,
		Title:       "Account Created",
		Description: fmt.Sprintf("Wallet %s registered on VerifyX", u.WalletAddress.Short()),
		Date:        u.CreatedAt,
		Meta:        map[string]any{"walletAddress": u.WalletAddress.String()},
	}}

	if u.Blockchain.DIDRegistered && u.Blockchain.RegisteredAt != nil {
		events = append(events, Event{
			ID:          "did_" + uid,
			Type:        EventDIDRegistered,
			Title:       "DID Registered on Blockchain",
			Description: "Your decentralized identity was anchored on the blockchain",
			Date:        *u.Blockchain.RegisteredAt,
			Meta:        map[string]any{"did": nullable(u.DID), "txHash": nullable(u.Blockchain.DIDTxHash)},
		})
	}

	// The first login coincides with account creation.
	if u.LastLogin != nil && u.LoginCount > 1 {
		events = append(events, Event{
			ID:          "login_" + strconv.FormatInt(u.LastLogin.UnixMilli(), 10),
			Type:        EventWalletConnected,
			Title:       "Wallet Signed In",
			Description: fmt.Sprintf("Wallet authentication, login #%d", u.LoginCount),
			Date:        *u.LastLogin,
			Meta:        map[string]any{"loginCount": u.LoginCount},
		})
	}
	return events
}

func documentEvents(d *docModels.Document) []Event {
	did := d.ID.String()
	label := d.Type.Label()
	events := []Event{{
		ID:          "doc_upload_" + did,
		Type:        EventDocumentUpload,
		Title:       "Document Uploaded",
		Description: label + " uploaded and encrypted",
		Date:        d.CreatedAt,
		Meta: map[string]any{
			"documentId":   did,
			"documentType": nullable(string(d.Type)),
			"ipfsHash":     nullable(d.IPFSHash),
			"fileName":     nullable(d.FileName),
		},
	}}

	switch d.Verification.Status {
	case docModels.StatusVerified:
		if d.Verification.VerifiedAt != nil {
			events = append(events, Event{
				ID:          "doc_verified_" + did,
				Type:        EventDocumentVerified,
				Title:       "Document Verified",
				Description: label + " passed AI verification",
				Date:        *d.Verification.VerifiedAt,
				Meta: map[string]any{
					"documentId":   did,
					"documentType": nullable(string(d.Type)),
					"aiConfidence": d.Verification.AIConfidence,
				},
			})
		}
	case docModels.StatusRejected:
		date := d.UpdatedAt
		if date.IsZero() {
			date = d.CreatedAt
		}
		reason := d.Verification.RejectionReason
		events = append(events, Event{
			ID:          "doc_rejected_" + did,
			Type:        EventDocumentRejected,
			Title:       "Document Rejected",
			Description: label + " failed verification" + suffix(reason),
			Date:        date,
			Meta:        map[string]any{"documentId": did, "reason": nullable(reason)},
		})
	}
	return events
}

func credentialEvents(c *credModels.Credential) []Event {
	credType := string(c.Type)
	if credType == "" {
		credType = "Credential"
	}
	issuer := c.Issuer.Name
	if issuer == "" {
		issuer = defaultIssuerName
	}

	events := []Event{{
		ID:          "cred_issued_" + c.ID,
		Type:        EventCredentialIssued,
		Title:       "Credential Issued",
		Description: fmt.Sprintf("%s credential issued by %s", credType, issuer),
		Date:        c.IssuedAt,
		Meta: map[string]any{
			"credentialId": c.ID,
			"type":         credType,
			"hash":         nullable(c.Hash),
			"expiresAt":    c.ExpiresAt,
		},
	}}

	if c.Status == credModels.StatusRevoked && c.Revocation.RevokedAt != nil {
		reason := c.Revocation.Reason
		events = append(events, Event{
			ID:          "cred_revoked_" + c.ID,
			Type:        EventCredentialRevoked,
			Title:       "Credential Revoked",
			Description: credType + " was revoked" + suffix(reason),
			Date:        *c.Revocation.RevokedAt,
			Meta:        map[string]any{"credentialId": c.ID, "reason": nullable(reason)},
		})
	}
	return events
}

// nullable renders empty strings as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func suffix(reason string) string {
	if reason == "" {
		return ""
	}
	return ": " + reason
}
