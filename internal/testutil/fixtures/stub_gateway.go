package fixtures

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/kevin07696/virtualmerchant/pkg/timeutil"
)

// Messages returned by the stub, worded as the live gateway words them
const (
	InvalidTransactionIDMessage = "The transaction ID is invalid for this transaction type"
	InvalidCardMessage          = "The Credit Card Number supplied in the authorization request appears to be invalid."
	InvalidCredentialsMessage   = "The credentials supplied in the authorization request are invalid."
	InvalidTokenMessage         = "The token supplied in the authorization request appears to be invalid."
	InvalidSearchDatesMessage   = "Search dates must be formatted as MM/DD/YYYY, the end date must be greater than the start date and the range cannot be greater than 31 days."
	UnsupportedTypeMessage      = "The transaction type supplied is not supported."
	DeclinedMessage             = "DECLINED"
	ApprovalMessage             = "APPROVAL"
	ApprovalCode                = "CMC142"
)

// Amounts whose cents equal DeclineCents are declined
const DeclineCents = "05"

// Trans status values reported by batch queries
const (
	StatusPending = "PEN"
	StatusSettled = "STL"
	StatusVoided  = "VOID"
)

type stubTxn struct {
	id       string
	txType   string
	amount   string
	status   string
	recorded time.Time
}

// StubGateway is an in-process VirtualMerchant gateway backed by httptest.
// It keeps the transactions it approved so follow-up calls and batch
// queries behave like the sandbox.
type StubGateway struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []map[string]string
	txns     map[string]*stubTxn
	order    []string
	tokens   map[string]string
	rawReply *rawReply
}

type rawReply struct {
	status int
	body   string
}

// NewStubGateway starts a stub gateway that is closed with the test
func NewStubGateway(t testing.TB) *StubGateway {
	t.Helper()

	s := &StubGateway{
		txns:   make(map[string]*stubTxn),
		tokens: make(map[string]string),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the processxml endpoint of the stub
func (s *StubGateway) URL() string {
	return s.server.URL + "/VirtualMerchantDemo/processxml.do"
}

// Requests returns the decoded txn fields of every request received
func (s *StubGateway) Requests() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the fields of the most recent request, nil when none
func (s *StubGateway) LastRequest() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// RespondWith makes every following request answer with a fixed status and body
func (s *StubGateway) RespondWith(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawReply = &rawReply{status: status, body: body}
}

func (s *StubGateway) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(r.PostForm.Get("xmldata")); err != nil || doc.Root() == nil {
		writeDocument(w, txnDocument(errorFields("4000", "Invalid XML", "The request could not be parsed.")))
		return
	}

	fields := make(map[string]string)
	for _, child := range doc.Root().ChildElements() {
		fields[child.Tag] = child.Text()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, fields)
	if s.rawReply != nil {
		w.WriteHeader(s.rawReply.status)
		_, _ = w.Write([]byte(s.rawReply.body))
		return
	}

	writeDocument(w, s.dispatch(fields))
}

// dispatch must be called with mu held
func (s *StubGateway) dispatch(fields map[string]string) *etree.Document {
	if fields["ssl_merchant_id"] != DemoMerchantID || fields["ssl_user_id"] != DemoUserID || fields["ssl_pin"] != DemoPin {
		return txnDocument(errorFields("4025", "Invalid Credentials", InvalidCredentialsMessage))
	}

	switch fields["ssl_transaction_type"] {
	case "ccsale", "ccauthonly":
		return s.charge(fields)
	case "ccreturn":
		return s.followUp(fields, func(t *stubTxn) bool { return t.txType == "ccsale" && t.status != StatusVoided })
	case "ccvoid":
		return s.followUp(fields, func(t *stubTxn) bool { return t.status == StatusPending })
	case "settle":
		return s.followUp(fields, func(t *stubTxn) bool { return t.txType == "ccauthonly" && t.status == StatusPending })
	case "ccgettoken":
		return s.tokenize(fields)
	case "txnquery":
		return s.query(fields)
	default:
		return txnDocument(errorFields("5011", "Invalid Transaction Type", UnsupportedTypeMessage))
	}
}

func (s *StubGateway) charge(fields map[string]string) *etree.Document {
	if token := fields["ssl_token"]; token != "" {
		if _, ok := s.tokens[token]; !ok {
			return txnDocument(errorFields("5085", "Invalid Token", InvalidTokenMessage))
		}
	} else if !validCardNumber(fields["ssl_card_number"]) {
		return txnDocument(errorFields("5000", "Invalid Card Number", InvalidCardMessage))
	}

	amount := fields["ssl_amount"]
	id := s.record(fields["ssl_transaction_type"], amount)

	if strings.HasSuffix(amount, "."+DeclineCents) {
		s.txns[id].status = StatusVoided
		return txnDocument([][2]string{
			{"ssl_result", "1"},
			{"ssl_result_message", DeclinedMessage},
			{"ssl_txn_id", id},
			{"ssl_approval_code", ""},
			{"ssl_amount", amount},
		})
	}

	return txnDocument([][2]string{
		{"ssl_result", "0"},
		{"ssl_result_message", ApprovalMessage},
		{"ssl_txn_id", id},
		{"ssl_approval_code", ApprovalCode},
		{"ssl_amount", amount},
		{"ssl_card_number", maskCard(fields["ssl_card_number"])},
		{"ssl_invoice_number", fields["ssl_invoice_number"]},
	})
}

func (s *StubGateway) followUp(fields map[string]string, allowed func(*stubTxn) bool) *etree.Document {
	txn, ok := s.txns[fields["ssl_txn_id"]]
	if !ok || !allowed(txn) {
		return txnDocument(errorFields("5040", "Invalid Transaction ID", InvalidTransactionIDMessage))
	}

	reply := [][2]string{
		{"ssl_result", "0"},
		{"ssl_result_message", ApprovalMessage},
	}
	switch fields["ssl_transaction_type"] {
	case "ccreturn":
		amount := fields["ssl_amount"]
		if amount == "" {
			amount = txn.amount
		}
		reply = append(reply, [2]string{"ssl_txn_id", s.record("ccreturn", amount)}, [2]string{"ssl_amount", amount})
	case "ccvoid":
		txn.status = StatusVoided
		reply = append(reply, [2]string{"ssl_txn_id", txn.id})
	case "settle":
		txn.status = StatusSettled
		reply = append(reply, [2]string{"ssl_txn_id", txn.id})
	}
	return txnDocument(reply)
}

func (s *StubGateway) tokenize(fields map[string]string) *etree.Document {
	if fields["ssl_add_token"] != "Y" || !validCardNumber(fields["ssl_card_number"]) {
		return txnDocument(errorFields("5000", "Invalid Card Number", InvalidCardMessage))
	}

	token := fmt.Sprintf("%04d%012d", 4421, len(s.tokens)+1)
	s.tokens[token] = fields["ssl_card_number"]
	return txnDocument([][2]string{
		{"ssl_result", "0"},
		{"ssl_result_message", ApprovalMessage},
		{"ssl_token", token},
		{"ssl_token_response", "SUCCESS"},
		{"ssl_add_token_response", "Card Updated"},
	})
}

func (s *StubGateway) query(fields map[string]string) *etree.Document {
	start, errStart := timeutil.ParseSearchDate(fields["ssl_search_start_date"])
	end, errEnd := timeutil.ParseSearchDate(fields["ssl_search_end_date"])
	if errStart != nil || errEnd != nil || end.Before(start) || end.Sub(start) > 31*24*time.Hour {
		return txnDocument(errorFields("5065", "Invalid Search Dates", InvalidSearchDatesMessage))
	}

	doc := etree.NewDocument()
	list := doc.CreateElement("txnlist")
	var matched []*stubTxn
	for _, id := range s.order {
		txn := s.txns[id]
		day := timeutil.StartOfDay(txn.recorded)
		if !day.Before(start) && !day.After(end) {
			matched = append(matched, txn)
		}
	}
	list.CreateElement("ssl_txn_count").SetText(fmt.Sprint(len(matched)))
	for _, txn := range matched {
		node := list.CreateElement("txn")
		node.CreateElement("ssl_txn_id").SetText(txn.id)
		node.CreateElement("ssl_transaction_type").SetText(txn.txType)
		node.CreateElement("ssl_amount").SetText(txn.amount)
		node.CreateElement("ssl_trans_status").SetText(txn.status)
		node.CreateElement("ssl_txn_time").SetText(txn.recorded.Format("01/02/2006 03:04:05 PM"))
	}
	return doc
}

// record stores a new transaction and returns its id; mu must be held
func (s *StubGateway) record(txType, amount string) string {
	id := fmt.Sprintf("%s-%s", timeutil.Now().Format("020106"), strings.ToUpper(uuid.NewString()))
	s.txns[id] = &stubTxn{
		id:       id,
		txType:   txType,
		amount:   amount,
		status:   StatusPending,
		recorded: timeutil.Now(),
	}
	s.order = append(s.order, id)
	return id
}

func errorFields(code, name, message string) [][2]string {
	return [][2]string{
		{"errorCode", code},
		{"errorName", name},
		{"errorMessage", message},
	}
}

func txnDocument(fields [][2]string) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("txn")
	for _, f := range fields {
		root.CreateElement(f[0]).SetText(f[1])
	}
	return doc
}

func writeDocument(w http.ResponseWriter, doc *etree.Document) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = doc.WriteTo(w)
}

func validCardNumber(number string) bool {
	if len(number) < 13 || len(number) > 19 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func maskCard(number string) string {
	if len(number) < 10 {
		return number
	}
	return number[:2] + strings.Repeat("*", len(number)-6) + number[len(number)-4:]
}
