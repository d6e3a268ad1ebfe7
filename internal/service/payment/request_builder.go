package payment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// Stripe hard limits
const (
	MaxMetadataEntries        = 20
	MaxMetadataKeyLength      = 40
	MaxMetadataValueLength    = 500
	MaxStatementDescriptorLen = 22
)

// InvoiceRefPlaceholder is replaced with the invoice reference in the
// statement descriptor template.
const InvoiceRefPlaceholder = "{{INVOICE_REF}}"

const defaultStatementDescriptor = "INV #" + InvoiceRefPlaceholder

// Payment data keys
const (
	DataToken      = "token"
	DataSourceID   = "source_id"
	DataCustomerID = "customer_id"
)

var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://stripe.com/invoice-driver/idempotency"))

// RequestBuilder turns a ChargeInput into a gateway-neutral ChargeRequest
type RequestBuilder struct {
	settings ports.SettingsProvider
}

func NewRequestBuilder(settings ports.SettingsProvider) *RequestBuilder {
	return &RequestBuilder{settings: settings}
}

// Build assembles the charge request. Configuration problems (no usable
// payment source) are returned as errors.
func (b *RequestBuilder) Build(in *ports.ChargeInput) (*domain.ChargeRequest, error) {
	source, err := ResolvePaymentSource(in.Source, in.PaymentData)
	if err != nil {
		return nil, err
	}

	template, _ := b.settings.String(ports.SettingStatementDescriptor)
	if template == "" {
		template = defaultStatementDescriptor
	}

	ref := ""
	if in.Invoice != nil {
		ref = in.Invoice.Ref
	}

	req := &domain.ChargeRequest{
		AmountMinorUnits:    in.AmountMinorUnits,
		Currency:            strings.ToLower(in.Currency),
		Description:         in.Description,
		Metadata:            BuildMetadata(in.Invoice, customMetadata(in.Payment), in.Data),
		PaymentSource:       source,
		StatementDescriptor: StatementDescriptor(template, ref),
		CustomerPresent:     in.CustomerPresent,
		IdempotencyKey:      IdempotencyKey("charge", invoiceID(in.Invoice), paymentID(in.Payment)),
	}

	if b.settings.Bool(ports.SettingReceiptEmail) {
		req.ReceiptEmail = ReceiptEmail(in.Invoice)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// StatementDescriptor substitutes the invoice reference into template and
// truncates the result to the gateway limit.
func StatementDescriptor(template, invoiceRef string) string {
	return truncate(strings.ReplaceAll(template, InvoiceRefPlaceholder, invoiceRef), MaxStatementDescriptorLen)
}

// BuildMetadata merges {invoiceId, invoiceRef} with each extra map in turn.
// Base keys come first, then each extra map's new keys in sorted order; a
// later value for an existing key replaces it in place. Only the first
// MaxMetadataEntries survive.
func BuildMetadata(inv *domain.Invoice, extra ...map[string]any) map[string]string {
	var keys []string
	values := make(map[string]string)

	put := func(k, v string) {
		k = truncate(k, MaxMetadataKeyLength)
		if _, ok := values[k]; !ok {
			keys = append(keys, k)
		}
		values[k] = truncate(v, MaxMetadataValueLength)
	}

	if inv != nil {
		put("invoiceId", inv.ID)
		put("invoiceRef", inv.Ref)
	}

	for _, m := range extra {
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			put(k, stringify(m[k]))
		}
	}

	out := make(map[string]string, MaxMetadataEntries)
	for i, k := range keys {
		if i >= MaxMetadataEntries {
			break
		}
		out[k] = values[k]
	}
	return out
}

// ResolvePaymentSource applies the source precedence: saved source, then
// token, then an explicit source/customer pair.
func ResolvePaymentSource(saved *domain.Source, data domain.PaymentData) (domain.PaymentSource, error) {
	if saved != nil {
		return saved.AsPaymentSource()
	}
	if token := data.String(DataToken); token != "" {
		return domain.TokenSource{Token: token}, nil
	}
	sourceID, customerID := data.String(DataSourceID), data.String(DataCustomerID)
	if sourceID != "" && customerID != "" {
		return domain.ExplicitSource{GatewaySourceID: sourceID, GatewayCustomerID: customerID}, nil
	}
	return nil, domain.ErrNoPaymentSource
}

// ReceiptEmail prefers the billing email over the general contact email.
func ReceiptEmail(inv *domain.Invoice) string {
	if inv == nil || inv.Customer == nil {
		return ""
	}
	if inv.Customer.BillingEmail != "" {
		return inv.Customer.BillingEmail
	}
	return inv.Customer.Email
}

// IdempotencyKey derives a stable key from its parts so a retried request
// for the same attempt cannot create a second charge. It returns "" when
// any part is empty.
func IdempotencyKey(parts ...string) string {
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return uuid.NewSHA1(idempotencyNamespace, []byte(strings.Join(parts, ":"))).String()
}

func customMetadata(p *domain.Payment) map[string]any {
	if p == nil || p.CustomData == nil {
		return nil
	}
	switch m := p.CustomData["metadata"].(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any, map[string]string, []string:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
