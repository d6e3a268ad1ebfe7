package payment

import (
	"github.com/buger/jsonparser"
	"github.com/stripe/stripe-go/v76"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// Statuses and fields from API versions before 2019-02-11
const (
	legacyStatusRequiresSourceAction = "requires_source_action"
	legacyStatusRequiresSource       = "requires_source"
	legacyNextActionAuthorizeWithURL = "authorize_with_url"
)

var intentStatuses = map[string]domain.IntentStatus{
	string(stripe.PaymentIntentStatusRequiresConfirmation):  domain.IntentStatusRequiresConfirmation,
	string(stripe.PaymentIntentStatusRequiresAction):        domain.IntentStatusRequiresAction,
	legacyStatusRequiresSourceAction:                        domain.IntentStatusRequiresAction,
	string(stripe.PaymentIntentStatusRequiresPaymentMethod): domain.IntentStatusRequiresPaymentMethod,
	legacyStatusRequiresSource:                              domain.IntentStatusRequiresPaymentMethod,
	string(stripe.PaymentIntentStatusProcessing):            domain.IntentStatusProcessing,
	string(stripe.PaymentIntentStatusSucceeded):             domain.IntentStatusSucceeded,
	string(stripe.PaymentIntentStatusCanceled):              domain.IntentStatusCanceled,
}

// NormalizeStatus maps current and legacy status strings onto one set.
func NormalizeStatus(raw string) domain.IntentStatus {
	if s, ok := intentStatuses[raw]; ok {
		return s
	}
	return domain.IntentStatusUnknown
}

// toIntent converts a stripe-go intent, reading legacy fields from the raw
// response body when the typed fields are empty.
func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	var raw []byte
	if pi.LastResponse != nil {
		raw = pi.LastResponse.RawJSON
	}

	rawStatus := string(pi.Status)
	if rawStatus == "" && raw != nil {
		rawStatus, _ = jsonparser.GetString(raw, "status")
	}

	out := &domain.PaymentIntent{
		ID:         pi.ID,
		Status:     NormalizeStatus(rawStatus),
		RawStatus:  rawStatus,
		NextAction: nextAction(pi.NextAction, raw),
	}

	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
		if pi.LatestCharge.BalanceTransaction != nil {
			out.BalanceTransactionID = pi.LatestCharge.BalanceTransaction.ID
		}
	}
	if out.LatestChargeID == "" && raw != nil {
		out.LatestChargeID, out.BalanceTransactionID = legacyCharge(raw)
	}

	return out
}

func nextAction(na *stripe.PaymentIntentNextAction, raw []byte) domain.NextAction {
	if na != nil && na.Type != "" {
		switch na.Type {
		case stripe.PaymentIntentNextActionTypeUseStripeSDK:
			return domain.NextAction{Kind: domain.NextActionUseStripeSDK}
		case stripe.PaymentIntentNextActionTypeRedirectToURL:
			a := domain.NextAction{Kind: domain.NextActionRedirectToURL}
			if na.RedirectToURL != nil {
				a.RedirectURL = na.RedirectToURL.URL
			}
			return a
		default:
			return domain.NextAction{Kind: domain.NextActionOther}
		}
	}

	if raw == nil {
		return domain.NextAction{}
	}

	t, err := jsonparser.GetString(raw, "next_source_action", "type")
	if err != nil || t == "" {
		return domain.NextAction{}
	}
	switch t {
	case legacyNextActionAuthorizeWithURL:
		url, _ := jsonparser.GetString(raw, "next_source_action", "authorize_with_url", "url")
		return domain.NextAction{Kind: domain.NextActionRedirectToURL, RedirectURL: url}
	case string(stripe.PaymentIntentNextActionTypeUseStripeSDK):
		return domain.NextAction{Kind: domain.NextActionUseStripeSDK}
	default:
		return domain.NextAction{Kind: domain.NextActionOther}
	}
}

// legacyCharge reads charges.data[0] from intents that predate latest_charge.
// balance_transaction may be an id or an expanded object.
func legacyCharge(raw []byte) (chargeID, balanceTxnID string) {
	chargeID, _ = jsonparser.GetString(raw, "charges", "data", "[0]", "id")
	if chargeID == "" {
		return "", ""
	}
	value, dataType, _, err := jsonparser.Get(raw, "charges", "data", "[0]", "balance_transaction")
	if err != nil {
		return chargeID, ""
	}
	switch dataType {
	case jsonparser.String:
		balanceTxnID = string(value)
	case jsonparser.Object:
		balanceTxnID, _ = jsonparser.GetString(value, "id")
	}
	return chargeID, balanceTxnID
}
