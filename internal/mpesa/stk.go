package mpesa

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type STKPushRequest struct {
	Phone            string // 2547XXXXXXXX
	Amount           int64  // whole shillings
	AccountReference string // at most 12 characters
	Description      string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushBody struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush asks the provider to prompt the payer's handset. Acceptance only
// means the prompt was sent; the outcome arrives on the callback.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (STKPushResponse, error) {
	ts := c.timestamp()
	body := stkPushBody{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		TransactionType:   TransactionType,
		Amount:            req.Amount,
		PartyA:            req.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	var out STKPushResponse
	if err := c.post(ctx, "stkpush", "/mpesa/stkpush/v1/processrequest", body, &out); err != nil {
		return STKPushResponse{}, err
	}
	if out.ResponseCode != "0" {
		msg := out.ResponseDescription
		if msg == "" {
			msg = "Transaction failed"
		}
		return STKPushResponse{}, &GatewayError{Kind: KindRejected, Op: "stkpush", Code: out.ResponseCode, Message: msg}
	}
	c.log.Info("stk push accepted",
		zap.String("checkout_request_id", out.CheckoutRequestID),
		zap.String("account_reference", req.AccountReference),
		zap.Int64("amount", req.Amount))
	return out, nil
}

// QueryResult is the provider's view of an earlier STK push. Pending is set
// while the payer has not answered the prompt yet.
type QueryResult struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Pending           bool
}

type stkQueryBody struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type stkQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// errorCode Daraja returns while the transaction is still in flight
const codeStillProcessing = "500.001.1001"

func (c *Client) STKQuery(ctx context.Context, checkoutRequestID string) (QueryResult, error) {
	ts := c.timestamp()
	body := stkQueryBody{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		CheckoutRequestID: checkoutRequestID,
	}

	var out stkQueryResponse
	err := c.post(ctx, "stkquery", "/mpesa/stkpushquery/v1/query", body, &out)
	var gerr *GatewayError
	if errors.As(err, &gerr) && gerr.Code == codeStillProcessing {
		return QueryResult{CheckoutRequestID: checkoutRequestID, Pending: true, ResultDesc: gerr.Message}, nil
	}
	if err != nil {
		return QueryResult{}, err
	}
	if out.ResponseCode != "0" {
		return QueryResult{}, &GatewayError{Kind: KindRejected, Op: "stkquery", Code: out.ResponseCode, Message: out.ResponseDescription}
	}
	code, err := strconv.Atoi(out.ResultCode)
	if err != nil {
		return QueryResult{}, &GatewayError{Kind: KindTransport, Op: "stkquery", Message: "bad ResultCode " + strconv.Quote(out.ResultCode)}
	}
	return QueryResult{CheckoutRequestID: checkoutRequestID, ResultCode: code, ResultDesc: out.ResultDesc}, nil
}

// post sends an authorised JSON request. A 401 blanks the cached token so the
// next call fetches a fresh one.
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(tok).
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return &GatewayError{Kind: KindTransport, Op: op, Err: err}
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusUnauthorized {
			_ = c.tokens.Set(ctx, "", time.Second)
		}
		return responseError(op, resp, apiErr)
	}
	return nil
}

func responseError(op string, resp *resty.Response, apiErr apiError) error {
	kind := KindRejected
	if resp.StatusCode() == http.StatusUnauthorized {
		kind = KindCredentials
	}
	msg := apiErr.ErrorMessage
	if msg == "" {
		msg = "Payment initiation failed: " + resp.Status()
	}
	return &GatewayError{Kind: kind, Op: op, Code: apiErr.ErrorCode, Message: msg}
}
