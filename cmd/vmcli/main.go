package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/virtualmerchant/internal/adapters/virtualmerchant"
	"github.com/kevin07696/virtualmerchant/internal/config"
	"github.com/kevin07696/virtualmerchant/internal/domain"
	"github.com/kevin07696/virtualmerchant/internal/domain/ports"
	"github.com/kevin07696/virtualmerchant/pkg/observability"
	"github.com/kevin07696/virtualmerchant/pkg/timeutil"
)

type options struct {
	amount      string
	invoice     string
	description string
	card        string
	expMonth    string
	expYear     string
	cvv         string
	txnID       string
	token       string
	from        string
	to          string
	days        int
}

// VMCLI runs one gateway call per invocation
type VMCLI struct {
	ctx     context.Context
	gateway ports.Gateway
	logger  *zap.Logger
	opts    options
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (env vars override it)")
		action      = flag.String("action", "", "Action to perform: sale, auth, settle, refund, void, tokenize, charge, batch")
		showMetrics = flag.Bool("metrics", false, "Print gateway metrics after the call")
		opts        options
	)
	flag.StringVar(&opts.amount, "amount", "", "Amount, e.g. 42.00")
	flag.StringVar(&opts.invoice, "invoice", "", "Invoice number")
	flag.StringVar(&opts.description, "description", "", "Order description")
	flag.StringVar(&opts.card, "card", "", "Card number")
	flag.StringVar(&opts.expMonth, "exp-month", "", "Expiration month (MM)")
	flag.StringVar(&opts.expYear, "exp-year", "", "Expiration year (YY or YYYY)")
	flag.StringVar(&opts.cvv, "cvv", "", "Card security code")
	flag.StringVar(&opts.txnID, "txn", "", "Transaction ID for settle, refund and void")
	flag.StringVar(&opts.token, "token", "", "Card token for charge")
	flag.StringVar(&opts.from, "from", "", "Batch start date (MM/DD/YYYY)")
	flag.StringVar(&opts.to, "to", "", "Batch end date (MM/DD/YYYY), defaults to now")
	flag.IntVar(&opts.days, "days", 1, "Batch window in days when -from is not set")
	flag.Parse()

	if *action == "" {
		fmt.Println("Usage: vmcli -action=<action> [options]")
		fmt.Println("Actions:")
		fmt.Println("  sale     - Authorize and capture a card payment")
		fmt.Println("  auth     - Authorize a card payment without capture")
		fmt.Println("  settle   - Settle an authorization (-txn)")
		fmt.Println("  refund   - Refund a sale (-txn, optional -amount)")
		fmt.Println("  void     - Void an unsettled transaction (-txn)")
		fmt.Println("  tokenize - Exchange a card for a reusable token")
		fmt.Println("  charge   - Charge a token (-token, -amount)")
		fmt.Println("  batch    - List transactions in a date range")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := config.ResolveCredentials(ctx, cfg, initSecretManager(ctx, cfg, logger))
	if err != nil {
		logger.Fatal("Failed to resolve merchant credentials", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	gwCfg := virtualmerchant.DefaultConfig(creds.Sandbox)
	gwCfg.Endpoint = virtualmerchant.EndpointFor(creds.Sandbox, cfg.Gateway.Endpoint)
	gwCfg.Timeout = cfg.Gateway.Timeout()

	gateway, err := virtualmerchant.NewGateway(gwCfg, creds, nil, logger,
		virtualmerchant.WithMetrics(observability.NewGatewayMetrics(registry)),
	)
	if err != nil {
		logger.Fatal("Failed to create gateway", zap.Error(err))
	}

	logger.Info("Gateway ready",
		zap.String("endpoint", gateway.Endpoint()),
		zap.String("merchant_id", creds.MerchantID),
	)

	cli := &VMCLI{ctx: ctx, gateway: gateway, logger: logger, opts: opts}
	runErr := cli.run(*action)

	if *showMetrics {
		printMetrics(registry)
	}
	if runErr != nil {
		reportError(runErr)
		os.Exit(2)
	}
}

func (cli *VMCLI) run(action string) error {
	switch action {
	case "sale":
		return cli.print(cli.gateway.SubmitTransaction(cli.ctx, cli.order(), cli.card(), nil, nil))
	case "auth":
		return cli.print(cli.gateway.AuthorizeTransaction(cli.ctx, cli.order(), cli.card(), nil, nil))
	case "settle":
		return cli.print(cli.gateway.SettleTransaction(cli.ctx, cli.opts.txnID, nil))
	case "refund":
		return cli.print(cli.gateway.RefundTransaction(cli.ctx, cli.opts.txnID, cli.amountFields()))
	case "void":
		return cli.print(cli.gateway.VoidTransaction(cli.ctx, cli.opts.txnID, nil))
	case "tokenize":
		return cli.print(cli.gateway.CreateCustomerProfile(cli.ctx, cli.card(), nil, nil, nil))
	case "charge":
		return cli.print(cli.gateway.ChargeCustomer(cli.ctx, cli.order(), &domain.Prospect{ProfileID: cli.opts.token}, nil))
	case "batch":
		return cli.batch()
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
}

func (cli *VMCLI) batch() error {
	var from time.Time
	if cli.opts.from != "" {
		parsed, err := timeutil.ParseSearchDate(cli.opts.from)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
		from = parsed
	} else {
		from = timeutil.DaysBefore(timeutil.Now(), cli.opts.days)
	}

	var to *time.Time
	if cli.opts.to != "" {
		parsed, err := timeutil.ParseSearchDate(cli.opts.to)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
		to = &parsed
	}

	txns, err := cli.gateway.GetSettledBatchList(cli.ctx, from, to)
	if err != nil {
		return err
	}

	rows := make([]domain.Fields, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, txn.Original)
	}
	return printJSON(rows)
}

func (cli *VMCLI) order() *domain.Order {
	return &domain.Order{
		Amount:        parseAmount(cli.opts.amount),
		InvoiceNumber: cli.opts.invoice,
		Description:   cli.opts.description,
	}
}

func (cli *VMCLI) card() *domain.CreditCard {
	if cli.opts.card == "" {
		return nil
	}
	return &domain.CreditCard{
		CreditCardNumber: cli.opts.card,
		ExpirationMonth:  cli.opts.expMonth,
		ExpirationYear:   cli.opts.expYear,
		CVV2:             cli.opts.cvv,
	}
}

func (cli *VMCLI) amountFields() *domain.PaymentFields {
	if cli.opts.amount == "" {
		return nil
	}
	return &domain.PaymentFields{Amount: parseAmount(cli.opts.amount)}
}

func (cli *VMCLI) print(result *domain.TransactionResult, err error) error {
	if err != nil {
		return err
	}
	return printJSON(result)
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid amount %q: %v\n", s, err)
		os.Exit(1)
	}
	return amount
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportError(err error) {
	if gwErr, ok := domain.AsGatewayError(err); ok {
		fmt.Fprintf(os.Stderr, "❌ %s error: %s\n", gwErr.Kind, gwErr.Message)
		if gwErr.Code != "" {
			fmt.Fprintf(os.Stderr, "   code: %s\n", gwErr.Code)
		}
		if len(gwErr.Original) > 0 {
			_ = printJSON(gwErr.Original)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
}

func printMetrics(registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to gather metrics:", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s%s %v\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Printf("%s%s count=%d sum=%.3f\n", mf.GetName(), labels, m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
}

func initLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	return zapCfg.Build()
}
