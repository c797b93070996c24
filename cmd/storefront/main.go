package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/catalog"
	"storefront-client/internal/checkout"
	"storefront-client/internal/config"
	"storefront-client/internal/domain"
	"storefront-client/internal/notify"
	"storefront-client/internal/session"
	"storefront-client/internal/store"
)

const usage = `usage: storefront <command> [flags]

catalog:
  products   [-page N] [-size N] [-search S] [-category ID]
  product    <id>
  categories

cart:
  cart
  add        <productID> <quantity>
  update     <itemID> <quantity>
  remove     <itemID>
  clear
  coupon     <code> | coupon -remove
  checkout   -email E -first F [-last L] [-phone P] -ship ADDR [-bill ADDR] [-method M] [-notes N]

account:
  login      -user U -pass P
  register   -user U -email E -pass P [-first F] [-last L] [-phone P]
  logout
  whoami
  orders     [-page N] [-size N]
  order      <id>
  cancel     <id>
`

// app bundles the wired services a command operates on.
type app struct {
	cfg      config.Config
	logger   *log.Logger
	client   *api.Client
	sessions *session.Manager
	carts    *cart.Manager
	catalog  *catalog.Service
	checkout *checkout.Service
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[storefront] ", log.LstdFlags|log.LUTC)

	ctx := context.Background()
	a, cleanup, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer cleanup()

	if err := run(ctx, a, args[0], args[1:]); err != nil {
		logger.Fatalf("%s: %v", args[0], err)
	}
}

func wire(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, func(), error) {
	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	tokens := session.NewTokenCache()
	client := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, tokens, logger)
	notifier := notify.NewLogger(logger)

	sessions := session.New(client, st, tokens, logger)
	if err := sessions.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}

	carts := cart.New(client, st, tokens, notifier, logger, cfg.Pricing)
	if err := carts.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: sessions,
		carts:    carts,
		catalog:  catalog.New(client),
		checkout: checkout.New(client, carts, notifier, logger),
	}, cleanup, nil
}

// openStore picks the persistence backend for session and guest-cart state.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "file":
		st, err := store.NewFile(cfg.StateDir)
		return st, func() {}, err
	case "postgres":
		pool, err := store.OpenPostgres(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(pool, cfg.SessionID), pool.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Printf("close redis: %v", err)
			}
		}
		return store.NewRedis(client, cfg.SessionID), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func run(ctx context.Context, a *app, command string, args []string) error {
	switch command {
	case "products":
		return cmdProducts(ctx, a, args)
	case "product":
		return cmdProduct(ctx, a, args)
	case "categories":
		return cmdCategories(ctx, a)
	case "cart":
		return cmdShowCart(a)
	case "add":
		return cmdAdd(ctx, a, args)
	case "update":
		return cmdUpdate(ctx, a, args)
	case "remove":
		return cmdRemove(ctx, a, args)
	case "clear":
		return cmdClear(ctx, a)
	case "coupon":
		return cmdCoupon(ctx, a, args)
	case "checkout":
		return cmdCheckout(ctx, a, args)
	case "login":
		return cmdLogin(ctx, a, args)
	case "register":
		return cmdRegister(ctx, a, args)
	case "logout":
		return cmdLogout(ctx, a)
	case "whoami":
		return cmdWhoami(a)
	case "orders":
		return cmdOrders(ctx, a, args)
	case "order":
		return cmdOrder(ctx, a, args)
	case "cancel":
		return cmdCancel(ctx, a, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdProducts(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 10, "page size")
	search := fs.String("search", "", "name filter")
	category := fs.Int64("category", 0, "category id filter")
	fs.Parse(args)

	result, err := a.catalog.List(ctx, api.ProductSearchParams{
		Page: *page, Size: *size, Search: *search, CategoryID: *category,
	})
	if err != nil {
		return err
	}
	for _, p := range result.Content {
		inCart := " "
		if a.carts.InCart(p.ID) {
			inCart = "*"
		}
		fmt.Printf("%s %6d  %-30s %10d", inCart, p.ID, p.Name, p.UnitPrice())
		if p.SalePrice > 0 {
			fmt.Printf("  (was %d)", p.Price)
		}
		fmt.Println()
	}
	fmt.Printf("page %d/%d, %d products\n", result.Number+1, result.TotalPages, result.TotalElements)
	return nil
}

func cmdProduct(ctx context.Context, a *app, args []string) error {
	id, err := argID(args, "product id")
	if err != nil {
		return err
	}
	p, err := a.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("#%d %s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Println(p.Description)
	}
	fmt.Printf("price: %d", p.UnitPrice())
	if p.SalePrice > 0 {
		fmt.Printf(" (was %d)", p.Price)
	}
	fmt.Printf("\nstock: %d\n", p.StockQuantity)
	return nil
}

func cmdCategories(ctx context.Context, a *app) error {
	categories, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Printf("%6d  %s\n", c.ID, c.Name)
	}
	return nil
}

func cmdShowCart(a *app) error {
	printCart(a.carts.Current())
	if remaining := a.carts.AmountToFreeShipping(); remaining > 0 {
		fmt.Printf("add %d more for free shipping\n", remaining)
	}
	return nil
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: add <productID> <quantity>")
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	product, err := a.catalog.Get(ctx, productID)
	if err != nil {
		return err
	}
	updated, err := a.carts.AddItem(ctx, product, qty)
	if err != nil {
		return err
	}
	printCart(updated)
	return nil
}

func cmdUpdate(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: update <itemID> <quantity>")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	updated, err := a.carts.UpdateItem(ctx, itemID, qty)
	if err != nil {
		return err
	}
	printCart(updated)
	return nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	itemID, err := argID(args, "item id")
	if err != nil {
		return err
	}
	updated, err := a.carts.RemoveItem(ctx, itemID)
	if err != nil {
		return err
	}
	printCart(updated)
	return nil
}

func cmdClear(ctx context.Context, a *app) error {
	updated, err := a.carts.Clear(ctx)
	if err != nil {
		return err
	}
	printCart(updated)
	return nil
}

func cmdCoupon(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("coupon", flag.ExitOnError)
	remove := fs.Bool("remove", false, "remove the applied coupon")
	fs.Parse(args)

	if *remove {
		updated, err := a.carts.RemoveCoupon(ctx)
		if err != nil {
			return err
		}
		printCart(updated)
		return nil
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: coupon <code> | coupon -remove")
	}
	updated, err := a.carts.ApplyCoupon(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printCart(updated)
	return nil
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	email := fs.String("email", "", "customer email")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	ship := fs.String("ship", "", "shipping address")
	bill := fs.String("bill", "", "billing address (defaults to shipping)")
	method := fs.String("method", "", "shipping method")
	notes := fs.String("notes", "", "order notes")
	fs.Parse(args)

	order, err := a.checkout.PlaceOrder(ctx, checkout.Input{
		Email:           *email,
		FirstName:       *first,
		LastName:        *last,
		Phone:           *phone,
		ShippingAddress: *ship,
		BillingAddress:  *bill,
		ShippingMethod:  *method,
		Notes:           *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, total %d\n", order.OrderNumber, order.TotalAmount)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "username")
	pass := fs.String("pass", "", "password")
	fs.Parse(args)
	if *user == "" || *pass == "" {
		return fmt.Errorf("usage: login -user U -pass P")
	}

	u, err := a.sessions.Login(ctx, api.LoginRequest{Username: *user, Password: *pass})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", u.FullName())

	merged, err := a.carts.MigrateGuestCart(ctx)
	if err != nil {
		a.logger.Printf("guest cart migration failed: %v", err)
		return nil
	}
	if len(merged.Items) > 0 {
		printCart(merged)
	}
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	user := fs.String("user", "", "username")
	email := fs.String("email", "", "email address")
	pass := fs.String("pass", "", "password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	fs.Parse(args)
	if *user == "" || *email == "" || *pass == "" {
		return fmt.Errorf("usage: register -user U -email E -pass P")
	}

	u, err := a.sessions.Register(ctx, api.RegisterRequest{
		Username:  *user,
		Email:     *email,
		Password:  *pass,
		FirstName: *first,
		LastName:  *last,
		Phone:     *phone,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s\n", u.Username)

	if a.sessions.IsLoggedIn() {
		if _, err := a.carts.MigrateGuestCart(ctx); err != nil {
			a.logger.Printf("guest cart migration failed: %v", err)
		}
	}
	return nil
}

func cmdLogout(ctx context.Context, a *app) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func cmdWhoami(a *app) error {
	user, ok := a.sessions.CurrentUser()
	if !ok {
		fmt.Println("guest")
		return nil
	}
	fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
	if a.sessions.IsAdmin() {
		fmt.Println("role: admin")
	}
	return nil
}

func cmdOrders(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 10, "page size")
	fs.Parse(args)

	result, err := a.client.ListOrders(ctx, *page, *size)
	if err != nil {
		return err
	}
	for _, o := range result.Content {
		fmt.Printf("%6d  %-12s %-10s %10d  %s\n",
			o.ID, o.OrderNumber, o.Status, o.TotalAmount, o.CreatedAt.Format("2006-01-02"))
	}
	fmt.Printf("page %d/%d, %d orders\n", result.Number+1, result.TotalPages, result.TotalElements)
	return nil
}

func cmdOrder(ctx context.Context, a *app, args []string) error {
	id, err := argID(args, "order id")
	if err != nil {
		return err
	}
	o, err := a.client.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  total %d\n", o.OrderNumber, o.Status, o.TotalAmount)
	for _, it := range o.Items {
		fmt.Printf("  %dx %-30s %10d\n", it.Quantity, it.ProductName, it.TotalPrice)
	}
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	id, err := argID(args, "order id")
	if err != nil {
		return err
	}
	o, err := a.client.CancelOrder(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("order %s is now %s\n", o.OrderNumber, o.Status)
	return nil
}

func argID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one argument: %s", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return id, nil
}

func printCart(c domain.Cart) {
	if len(c.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, it := range c.Items {
		name := fmt.Sprintf("product %d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Printf("%8d  %dx %-30s %10d\n", it.ID, it.Quantity, name, it.Price*int64(it.Quantity))
	}
	fmt.Printf("subtotal %d  tax %d  shipping %d", c.Subtotal, c.TaxAmount, c.ShippingAmount)
	if c.DiscountAmount > 0 {
		fmt.Printf("  discount -%d", c.DiscountAmount)
	}
	fmt.Printf("  total %d\n", c.TotalAmount)
}
