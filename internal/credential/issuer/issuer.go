package issuer

import (
	"fmt"
	"time"

	"verifyx/internal/credential/models"
	id "verifyx/pkg/domain"
)

const (
	DefaultDID      = "did:ethr:verifyx"
	DefaultName     = "VerifyX"
	DefaultValidity = 365 * 24 * time.Hour
)

// Issuer builds credentials under a fixed system identity. It trusts the
// caller's verification reference; pass/fail is enforced by the calling
// workflow.
type Issuer struct {
	identity models.Issuer
	validity time.Duration
	signer   *Signer
}

type Option func(*Issuer)

func WithIdentity(did, name string) Option {
	return func(i *Issuer) {
		if did != "" {
			i.identity.DID = did
		}
		if name != "" {
			i.identity.Name = name
		}
	}
}

func WithValidity(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.validity = d
		}
	}
}

// WithSigner attaches an EcdsaSecp256k1Signature2019 proof to every credential.
func WithSigner(s *Signer) Option {
	return func(i *Issuer) {
		i.signer = s
	}
}

func New(opts ...Option) *Issuer {
	i := &Issuer{
		identity: models.Issuer{DID: DefaultDID, Name: DefaultName},
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Identity returns the issuer's DID and display name.
func (i *Issuer) Identity() models.Issuer {
	return i.identity
}

type IssueInput struct {
	Type           models.Type
	SubjectUserID  id.UserID
	SubjectDID     string
	Wallet         id.WalletAddress
	VerificationID id.VerificationID
	Claims         models.Claims
	IncludedClaims []string
	Now            time.Time
}

// Build validates the disclosure set, applies defaults and returns a
// credential with its hash computed. Nothing is persisted.
func (i *Issuer) Build(in IssueInput) (*models.Credential, error) {
	included, err := models.ParseIncludedClaims(in.IncludedClaims)
	if err != nil {
		return nil, err
	}
	credType := in.Type
	if credType == "" {
		credType = models.TypeIdentity
	}
	if !credType.IsValid() {
		return nil, fmt.Errorf("unsupported credential type %q", credType)
	}
	subjectDID := in.SubjectDID
	if subjectDID == "" {
		if in.Wallet.IsNil() {
			return nil, fmt.Errorf("subject DID or wallet address is required")
		}
		subjectDID = in.Wallet.DefaultDID()
	}

	cred, err := models.NewCredential(models.Draft{
		Type:           credType,
		Issuer:         i.identity,
		Subject:        models.Subject{UserID: in.SubjectUserID, DID: subjectDID},
		VerificationID: in.VerificationID,
		Claims:         in.Claims,
		IncludedClaims: included,
		IssuedAt:       in.Now,
		ExpiresAt:      in.Now.Add(i.validity),
	})
	if err != nil {
		return nil, err
	}

	if i.signer != nil {
		jws, err := i.signer.Sign(cred.Hash)
		if err != nil {
			return nil, err
		}
		cred.Proof = &models.Proof{
			Type:               models.ProofType,
			Created:            cred.IssuedAt,
			ProofPurpose:       models.ProofPurpose,
			VerificationMethod: i.identity.DID + "#controller",
			JWS:                jws,
		}
	}
	return cred, nil
}
