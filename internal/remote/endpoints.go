package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cartify/internal/domain"
)

// Login exchanges credentials for the user record, token included.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	const op = "login"
	resp, err := c.send(ctx, op, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.User{}, err
	}

	var out loginResponse
	decodeErr := json.Unmarshal(resp.body, &out)
	if resp.status >= http.StatusBadRequest || (out.Success != nil && !*out.Success) {
		e := &Error{Op: op, StatusCode: resp.status, Message: out.Message}
		if resp.status == http.StatusUnauthorized || resp.status < http.StatusBadRequest {
			e.Err = domain.ErrUnauthenticated
		}
		return domain.User{}, e
	}
	if decodeErr != nil {
		return domain.User{}, &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)}
	}
	if out.User == nil || out.User.Token == "" {
		return domain.User{}, &Error{Op: op, Err: fmt.Errorf("%w: user token missing", ErrMalformedResponse)}
	}
	return out.User.toDomain(), nil
}

// GetProduct resolves a scanned code. A 404 or a success=false answer is
// reported as domain.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	const op = "get product"
	var dto productDTO
	_, err := c.call(ctx, op, http.MethodGet, "/product/getProduct/"+url.PathEscape(code), nil, nil, &dto)
	if err != nil {
		var re *Error
		if errors.As(err, &re) && re.Err == nil && re.StatusCode >= http.StatusOK && re.StatusCode < http.StatusMultipleChoices {
			re.Err = domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	if dto.ID == "" {
		return domain.Product{}, &Error{Op: op, Err: fmt.Errorf("%w: product id missing", ErrMalformedResponse)}
	}
	return dto.toDomain(), nil
}

// CreateBilling asks the backend to price the given lines.
func (c *Client) CreateBilling(ctx context.Context, lines []domain.BillingLine) (domain.Bill, error) {
	const op = "create billing"
	var dto billDTO
	if _, err := c.call(ctx, op, http.MethodPost, "/billing/createBilling", nil, billingRequest{ProductData: lines}, &dto); err != nil {
		return domain.Bill{}, err
	}
	if dto.BillID == "" {
		return domain.Bill{}, &Error{Op: op, Err: fmt.Errorf("%w: billId missing", ErrMalformedResponse)}
	}
	if !dto.TotalBilling.Valid {
		return domain.Bill{}, &Error{Op: op, Err: fmt.Errorf("%w: totalBilling missing", ErrMalformedResponse)}
	}
	return dto.toDomain(domain.BillPending), nil
}

// CreatePOSBill queues a bill for in-store payment and returns the
// backend's confirmation message.
func (c *Client) CreatePOSBill(ctx context.Context, billID string) (string, error) {
	return c.call(ctx, "create pos bill", http.MethodPost, "/billing/createPosBills", url.Values{"billId": {billID}}, nil, nil)
}

// CreatePaymentIntent returns the client secret for paying amount minor
// units against billID.
func (c *Client) CreatePaymentIntent(ctx context.Context, billID string, amount int64) (string, error) {
	const op = "create payment intent"
	var dto paymentIntentDTO
	if _, err := c.call(ctx, op, http.MethodPost, "/company/onlinePayment", url.Values{"id": {billID}}, paymentIntentRequest{Amount: amount}, &dto); err != nil {
		return "", err
	}
	if dto.ClientSecret == "" {
		return "", &Error{Op: op, Err: fmt.Errorf("%w: clientSecret missing", ErrMalformedResponse)}
	}
	return dto.ClientSecret, nil
}

// ListPOSBills returns pending in-store bills and the full POS history.
func (c *Client) ListPOSBills(ctx context.Context) (domain.POSBills, error) {
	var dto posBillsDTO
	if _, err := c.call(ctx, "list pos bills", http.MethodGet, "/company/getPosBills", nil, nil, &dto); err != nil {
		return domain.POSBills{}, err
	}
	out := domain.POSBills{}
	for _, b := range dto.PendingBills {
		out.Pending = append(out.Pending, b.toDomain(domain.BillPending))
	}
	for _, b := range dto.POSBills {
		out.All = append(out.All, b.toDomain(domain.BillPending))
	}
	return out, nil
}

// MarkPOSBillPaid flags the POS bill with record id id as paid.
func (c *Client) MarkPOSBillPaid(ctx context.Context, id string) error {
	_, err := c.call(ctx, "mark pos bill paid", http.MethodPut, "/company/updatePosBill", url.Values{"id": {id}}, nil, nil)
	return err
}

// PrintBill fetches the printable document for billID. The payload is
// returned as received: raw PDF bytes or a base64 string, possibly wrapped
// in the usual envelope.
func (c *Client) PrintBill(ctx context.Context, billID string) ([]byte, error) {
	const op = "print bill"
	resp, err := c.send(ctx, op, http.MethodGet, "/billing/getBilling", url.Values{"billId": {billID}}, nil)
	if err != nil {
		return nil, err
	}
	if resp.status >= http.StatusBadRequest {
		e := &Error{Op: op, StatusCode: resp.status, Message: envelopeMessage(resp.body)}
		if resp.status == http.StatusNotFound {
			e.Err = domain.ErrNotFound
		}
		return nil, e
	}
	if !strings.Contains(resp.contentType, "json") {
		return resp.body, nil
	}

	var env envelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if env.Success != nil && !*env.Success {
		return nil, &Error{Op: op, StatusCode: resp.status, Message: env.Message}
	}
	var s string
	if err := json.Unmarshal(env.Data, &s); err == nil {
		return []byte(s), nil
	}
	var doc documentDTO
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	for _, v := range []string{doc.PDF, doc.File, doc.Content} {
		if v != "" {
			return []byte(v), nil
		}
	}
	return nil, &Error{Op: op, Err: fmt.Errorf("%w: document missing", ErrMalformedResponse)}
}
