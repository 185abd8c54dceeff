// Command printctl is a terminal front end for the print-shop API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fotcopier/printshop/pkg/client"
	"github.com/fotcopier/printshop/pkg/order"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printctl <register|login|order|show|list> [flags]")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var err error
	switch args[0] {
	case "register":
		err = register(ctx, args[1:], stdout)
	case "login":
		err = login(ctx, args[1:], stdout)
	case "order":
		err = submit(ctx, args[1:], stdout)
	case "show":
		err = show(ctx, args[1:], stdout)
	case "list":
		err = list(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// commonFlags registers -api and -token, defaulting from the environment.
func commonFlags(fs *flag.FlagSet) (api, token *string) {
	api = fs.String("api", envOr("PRINTCTL_URL", "http://localhost:8080"), "API base URL")
	token = fs.String("token", os.Getenv("PRINTCTL_TOKEN"), "access token")
	return api, token
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func register(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	api, _ := commonFlags(fs)
	var in client.RegisterRequest
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.Name, "name", "", "first name")
	fs.StringVar(&in.Lastname, "lastname", "", "last name")
	fs.StringVar(&in.Commission, "commission", "", "commission")
	fs.StringVar(&in.Legajo, "legajo", "", "student id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := client.New(*api, "").Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %s registered\n", id)
	return nil
}

func login(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	api, _ := commonFlags(fs)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tok, err := client.New(*api, "").Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func submit(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	api, token := commonFlags(fs)
	file := fs.String("file", "", "PDF to print")
	color := fs.String("color", string(order.ColorModeMonochrome), `"color" or "BN"`)
	quote := fs.String("cotizacion", "", "quoted price")
	var req client.OrderRequest
	fs.BoolVar(&req.DobleFaz, "duplex", false, "print both sides")
	fs.BoolVar(&req.Anillado, "binding", false, "ring binding")
	fs.BoolVar(&req.ImplementacionIA, "ai", false, "AI-assisted processing")
	fs.StringVar(&req.Nombre, "nombre", "", "display name (defaults to profile)")
	fs.StringVar(&req.Comision, "comision", "", "commission (defaults to profile)")
	fs.StringVar(&req.Legajo, "legajo", "", "student id (defaults to profile)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	req.Color = order.ColorMode(*color)
	req.Cotizacion = *quote
	req.Filename = filepath.Base(*file)
	req.Document = f

	o, err := client.New(*api, *token).SubmitOrder(ctx, req)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Field != "" {
			return err
		}
		return fmt.Errorf("the order could not be submitted, try again: %w", err)
	}
	fmt.Fprintf(out, "order %s created (%d pages)\n", o.ID, o.CantidadHojas)
	return nil
}

func show(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	api, token := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: printctl show <order-id>")
	}
	o, err := client.New(*api, *token).Order(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printOrder(out, o)
	return nil
}

func list(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	api, token := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := client.New(*api, *token).Orders(ctx)
	if err != nil {
		return err
	}
	for _, o := range items {
		fmt.Fprintf(out, "%s  %s  %3d pages  %s\n", o.CreatedAt.Format(time.DateTime), o.ID, o.CantidadHojas, o.NombreArchivo)
	}
	return nil
}

func printOrder(w io.Writer, o order.Order) {
	fmt.Fprintf(w, "id:         %s\n", o.ID)
	fmt.Fprintf(w, "owner:      %s (%s, %s)\n", o.Nombre, o.Comision, o.Legajo)
	fmt.Fprintf(w, "file:       %s\n", o.NombreArchivo)
	fmt.Fprintf(w, "pages:      %d (%s, sources agree: %t)\n", o.CantidadHojas, o.PageCountSource, o.PageCountAgreement)
	fmt.Fprintf(w, "color:      %s  duplex: %t  binding: %t  ai: %t\n", o.Color, o.DobleFaz, o.Anillado, o.ImplementacionIA)
	fmt.Fprintf(w, "quote:      %s\n", o.Cotizacion)
	fmt.Fprintf(w, "created:    %s\n", o.CreatedAt.Format(time.RFC3339))
}
