package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"postutme-be/internal/utils"

	"github.com/google/uuid"
)

// ReceiptGenerator renders the durable receipt artifact for a settled
// payment. The rendered body and its hash depend only on the payment's
// content, so a re-render of the same payment reproduces the same hash.
type ReceiptGenerator struct {
	Institution string

	serial func() string
	now    func() time.Time
}

func NewReceiptGenerator(institution string) *ReceiptGenerator {
	return &ReceiptGenerator{
		Institution: institution,
		serial:      utils.GenerateReceiptSerial,
		now:         time.Now,
	}
}

func (g *ReceiptGenerator) Generate(p *Payment) *Receipt {
	body := g.Render(p)

	sum := sha256.Sum256([]byte(body))

	return &Receipt{
		ID:          uuid.NewString(),
		PaymentID:   p.ID,
		Serial:      g.serial(),
		ContentHash: hex.EncodeToString(sum[:]),
		Body:        body,
		CreatedAt:   g.now(),
	}
}

// Render produces the receipt body from the payment's immutable fields plus
// the settlement time. The serial is presentation metadata and is kept out
// of the hashed content.
func (g *ReceiptGenerator) Render(p *Payment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", g.Institution)
	fmt.Fprintf(&b, "OFFICIAL PAYMENT RECEIPT\n\n")
	fmt.Fprintf(&b, "Payment ID:    %s\n", p.ID)
	fmt.Fprintf(&b, "Candidate:     %s\n", p.CandidateID)
	fmt.Fprintf(&b, "Purpose:       %s\n", purposeLabel(p.Purpose))
	fmt.Fprintf(&b, "Amount:        %s\n", utils.FormatKobo(p.Amount))
	fmt.Fprintf(&b, "Provider:      %s\n", p.Provider)
	fmt.Fprintf(&b, "Reference:     %s\n", p.ProviderReference)
	fmt.Fprintf(&b, "Settled:       %s\n", p.UpdatedAt.UTC().Format(time.RFC3339))

	return b.String()
}

// VerifyReceipt recomputes the hash of a stored receipt body against its
// recorded digest.
func VerifyReceipt(rec *Receipt) bool {
	sum := sha256.Sum256([]byte(rec.Body))
	return hex.EncodeToString(sum[:]) == rec.ContentHash
}

func purposeLabel(p Purpose) string {
	switch p {
	case PurposeApplicationFee:
		return "Post-UTME Application Fee"
	case PurposeAcceptanceFee:
		return "Admission Acceptance Fee"
	case PurposeSchoolFees:
		return "School Fees"
	default:
		return "Other Payment"
	}
}
