package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cartify/internal/domain"
	"cartify/internal/service/fulfillment"
	"cartify/internal/service/payment"
	"cartify/internal/service/scan"
)

type sessionAPI interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout(ctx context.Context)
	Current() (domain.User, bool)
}

type resolverAPI interface {
	Resolve(ctx context.Context, code string) (domain.Product, error)
}

type cartAPI interface {
	Add(product domain.Product, qty int) (domain.Cart, error)
	Increment(productID string) (domain.Cart, error)
	Decrement(productID string) (domain.Cart, error)
	Remove(productID string) (domain.Cart, error)
	Snapshot() domain.Cart
}

type checkoutAPI interface {
	Submit(ctx context.Context) (fulfillment.Status, error)
	SendToPOS(ctx context.Context, billID string) (fulfillment.Status, error)
	PayOnline(ctx context.Context, billID string, payer domain.Payer, card payment.CardInput) (fulfillment.Status, error)
	Reset() error
	State() fulfillment.Status
}

const helpText = `commands:
  :login <email> <password>   log in
  :logout                     log out
  :cart                       show the cart
  :inc|:dec|:rm <productId>   change a line
  :bill                       price the cart
  :pos                        send the bill to the POS counter
  :pay <email> <pm> <name..>  pay the bill online
  :reset                      start the checkout over
  :quit                       exit
`

type runner struct {
	session  sessionAPI
	resolver resolverAPI
	cart     cartAPI
	checkout checkoutAPI
	out      io.Writer
}

// run arms the scanner for one code at a time until input ends or ctx is
// cancelled. Codes scanned while a previous one is processed wait in the
// scanner's queue for the next session.
func (r *runner) run(ctx context.Context, scanner *scan.Scanner) error {
	for {
		scanner.Arm()
		sym, err := scanner.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if r.handle(ctx, sym) {
			return nil
		}
	}
}

// handle processes one captured line and reports whether to quit.
func (r *runner) handle(ctx context.Context, sym scan.Symbol) bool {
	if !strings.HasPrefix(sym.Data, ":") {
		r.add(ctx, sym)
		return false
	}
	fields := strings.Fields(sym.Data)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		r.printf("%s", helpText)
	case ":login":
		if len(args) != 2 {
			r.printf("usage: :login <email> <password>\n")
			return false
		}
		user, err := r.session.Login(ctx, args[0], args[1])
		if err != nil {
			r.fail(err)
			return false
		}
		r.printf("logged in as %s\n", user.Email)
	case ":logout":
		r.session.Logout(ctx)
		r.printf("logged out\n")
	case ":cart":
		r.printCart(r.cart.Snapshot())
	case ":inc", ":dec", ":rm":
		if len(args) != 1 {
			r.printf("usage: %s <productId>\n", cmd)
			return false
		}
		op := map[string]func(string) (domain.Cart, error){
			":inc": r.cart.Increment,
			":dec": r.cart.Decrement,
			":rm":  r.cart.Remove,
		}[cmd]
		cart, err := op(args[0])
		if err != nil {
			r.fail(err)
			return false
		}
		r.printCart(cart)
	case ":bill":
		status, err := r.checkout.Submit(ctx)
		if err != nil {
			r.fail(err)
			return false
		}
		r.printBill(status)
	case ":pos":
		bill := r.checkout.State().Bill
		if bill == nil {
			r.fail(fulfillment.ErrNoBill)
			return false
		}
		status, err := r.checkout.SendToPOS(ctx, bill.BillID)
		if err != nil {
			r.fail(err)
			return false
		}
		r.printf("bill %s sent to the POS counter. %s\n", bill.BillID, status.Message)
	case ":pay":
		if len(args) < 3 {
			r.printf("usage: :pay <email> <paymentMethod> <name>\n")
			return false
		}
		bill := r.checkout.State().Bill
		if bill == nil {
			r.fail(fulfillment.ErrNoBill)
			return false
		}
		payer := domain.Payer{Email: args[0], Name: strings.Join(args[2:], " ")}
		if _, err := r.checkout.PayOnline(ctx, bill.BillID, payer, payment.PaymentMethod(args[1])); err != nil {
			r.fail(err)
			return false
		}
		r.printf("bill %s paid\n", bill.BillID)
	case ":reset":
		if err := r.checkout.Reset(); err != nil {
			r.fail(err)
			return false
		}
		r.printf("checkout reset\n")
	default:
		r.printf("unknown command %s, type :help\n", cmd)
	}
	return false
}

func (r *runner) add(ctx context.Context, sym scan.Symbol) {
	if _, ok := r.session.Current(); !ok {
		r.fail(domain.ErrUnauthenticated)
		return
	}
	product, err := r.resolver.Resolve(ctx, sym.Data)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.printf("no product for %s code %s\n", sym.Symbology, sym.Data)
			return
		}
		r.fail(err)
		return
	}
	cart, err := r.cart.Add(product, 1)
	if err != nil {
		r.fail(err)
		return
	}
	r.printf("+ %s  %s\n", product.Name, domain.FormatAmount(product.Price))
	r.printf("  items %d  total %s\n", cart.TotalQuantity(), domain.FormatAmount(cart.TotalPrice()))
}

func (r *runner) printCart(cart domain.Cart) {
	if cart.IsEmpty() {
		r.printf("cart is empty\n")
		return
	}
	for _, item := range cart.Items {
		r.printf("%-12s %-24s %3d x %8s = %8s\n",
			item.ProductID, item.Name, item.Quantity,
			domain.FormatAmount(item.UnitPrice), domain.FormatAmount(item.LineTotal()))
	}
	r.printf("total %s  weight %s\n", domain.FormatAmount(cart.TotalPrice()), cart.TotalWeight().String())
}

func (r *runner) printBill(status fulfillment.Status) {
	if status.Bill == nil {
		r.printf("no bill\n")
		return
	}
	r.printf("bill %s  total %s  weight %s\n",
		status.Bill.BillID, domain.FormatAmount(status.Bill.TotalBilling), status.Bill.TotalWeight.String())
}

func (r *runner) fail(err error) {
	var pf *domain.PaymentFailure
	if errors.As(err, &pf) {
		r.printf("payment %s: %s\n", pf.Kind, pf.Reason)
		return
	}
	r.printf("error: %v\n", err)
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
