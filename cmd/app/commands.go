package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/forms"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/service/booking"
	"github.com/Domenick1991/skyclient/internal/service/flights"
	"github.com/Domenick1991/skyclient/internal/session"
)

const usage = `usage: app <command> [flags]

commands:
  status                                 show the session
  signin   -email E -password P          sign in
  register -name N -email E -password P -confirm P
  signout                                forget the stored credential
  prefs    [key value]                   show or change a preference
  search   -from C -to C -date YYYY-MM-DD [-return YYYY-MM-DD] [-class economy|business]
  bookings                               list your bookings
  book     -flight ID -passenger NAME [-class economy|business]
  cancel   ID                            cancel an active booking
  delete   ID                            delete a cancelled booking`

const timeLayout = "2006-01-02 15:04"

var errUsage = errors.New(usage)

type app struct {
	session  *session.Machine
	bookings *booking.BookingService
	flights  *flights.FlightService
	in       *bufio.Reader
	out      io.Writer
	now      func() time.Time
}

func newApp(machine *session.Machine, api *remote.HTTPClient, flightCache flights.FlightCache, in io.Reader, out io.Writer, log logger.Logger) *app {
	a := &app{
		session: machine,
		flights: flights.NewFlightService(api, flightCache, log.WithFields(map[string]interface{}{"component": "flights"})),
		in:      bufio.NewReader(in),
		out:     out,
		now:     time.Now,
	}
	a.bookings = booking.NewBookingService(api,
		booking.WithConfirmer(booking.ConfirmFunc(a.confirm)),
		booking.WithLogger(log.WithFields(map[string]interface{}{"component": "bookings"})),
	)
	return a
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return a.status(ctx)
	case "signin":
		return a.signIn(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "signout":
		return a.signOut(ctx)
	case "prefs":
		return a.prefs(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "bookings":
		return a.listBookings(ctx)
	case "book":
		return a.book(ctx, rest)
	case "cancel":
		return a.cancel(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	}
	return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// confirm asks on the terminal; anything but y or yes declines.
func (a *app) confirm(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (a *app) ready(ctx context.Context) (session.State, error) {
	a.session.Bootstrap(ctx)
	return a.session.Ready(ctx)
}

func (a *app) token(ctx context.Context) (string, error) {
	if _, err := a.ready(ctx); err != nil {
		return "", err
	}
	return a.session.Token()
}

func (a *app) status(ctx context.Context) error {
	state, err := a.ready(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "status: %s\n", state.Status)
	if state.SignedIn() {
		fmt.Fprintf(a.out, "user:   %s <%s>\n", state.Profile.Username, state.Profile.Email)
	}
	if state.Err != nil {
		fmt.Fprintf(a.out, "error:  %s\n", describe(state.Err))
	}
	a.printPreferences(state.Preferences)
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	var form forms.LoginForm
	fs := a.newFlagSet("signin")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}

	state, err := a.session.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", state.Profile.Username)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	var form forms.RegisterForm
	fs := a.newFlagSet("register")
	fs.StringVar(&form.FullName, "name", "", "full name")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "repeated password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}

	state, err := a.session.Register(ctx, form.FullName, form.Email, form.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s\n", state.Profile.Username)
	return nil
}

func (a *app) signOut(ctx context.Context) error {
	if _, err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) prefs(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		state, err := a.ready(ctx)
		if err != nil {
			return err
		}
		a.printPreferences(state.Preferences)
		return nil
	case 2:
		current, err := a.ready(ctx)
		if err != nil {
			return err
		}
		if !current.SignedIn() {
			return session.ErrNotSignedIn
		}
		state, err := a.session.UpdatePreference(ctx, domain.PreferenceKey(args[0]), args[1])
		if err != nil {
			return err
		}
		a.printPreferences(state.Preferences)
		return nil
	}
	return errUsage
}

func (a *app) printPreferences(p domain.Preferences) {
	fmt.Fprintf(a.out, "%s: %s\n", domain.PreferenceCurrency, p.PreferredCurrency)
	fmt.Fprintf(a.out, "%s: %s\n", domain.PreferenceAppearance, p.Appearance)
	fmt.Fprintf(a.out, "%s: %s\n", domain.PreferenceTripType, p.DefaultTripType)
}

func (a *app) search(ctx context.Context, args []string) error {
	var (
		form               forms.SearchForm
		departure, returns string
	)
	fs := a.newFlagSet("search")
	fs.StringVar(&form.DepartureCity, "from", "", "departure city")
	fs.StringVar(&form.DestinationCity, "to", "", "destination city")
	fs.StringVar(&departure, "date", "", "departure date (YYYY-MM-DD)")
	fs.StringVar(&returns, "return", "", "return date (YYYY-MM-DD), makes it a round trip")
	fs.StringVar(&form.SeatClass, "class", string(domain.SeatClassEconomy), "seat class")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var invalid []domain.FieldError
	if departure != "" {
		d, err := time.Parse(time.DateOnly, departure)
		if err != nil {
			invalid = append(invalid, domain.FieldError{Field: "departureDate", Message: "Expected a date like 2026-12-24"})
		}
		form.DepartureDate = d
	}
	if returns != "" {
		r, err := time.Parse(time.DateOnly, returns)
		if err != nil {
			invalid = append(invalid, domain.FieldError{Field: "returnDate", Message: "Expected a date like 2026-12-24"})
		}
		form.RoundTrip = true
		form.ReturnDate = &r
	}
	if len(invalid) > 0 {
		return domain.NewValidationError(invalid...)
	}

	query, err := form.Query(a.now())
	if err != nil {
		return err
	}
	state, err := a.ready(ctx)
	if err != nil {
		return err
	}
	found, err := a.flights.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(a.out, "No flights found")
		return nil
	}

	sign := state.Preferences.PreferredCurrency.Sign()
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFLIGHT\tAIRLINE\tFROM\tTO\tDEPARTS\tDURATION\tSTOPS\tPRICE")
	for _, f := range found {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s%.2f\n",
			f.ID(), f.FlightNr(), f.Airline(),
			f.DepartureAirport(), f.ArrivalAirport(),
			f.DepartureTime().Format(timeLayout),
			domain.FormatDuration(f.TotalDuration()), f.Stops(),
			sign, f.Price())
	}
	return w.Flush()
}

func (a *app) listBookings(ctx context.Context) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	list, err := a.bookings.List(ctx, token)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No bookings yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOKING\tFLIGHT\tDEPARTS\tPASSENGER\tCLASS\tSTATUS")
	for _, b := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.BookingNr, b.Flight.FlightNr(),
			b.Flight.DepartureTime().Format(timeLayout),
			b.PassengerName, b.SeatClass, b.Status)
	}
	return w.Flush()
}

func (a *app) book(ctx context.Context, args []string) error {
	var form forms.PassengerForm
	fs := a.newFlagSet("book")
	fs.Int64Var(&form.FlightID, "flight", 0, "flight id from search")
	fs.StringVar(&form.PassengerName, "passenger", "", "passenger name")
	fs.StringVar(&form.SeatClass, "class", string(domain.SeatClassEconomy), "seat class")
	if err := fs.Parse(args); err != nil {
		return err
	}
	class, err := form.Validate()
	if err != nil {
		return err
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	created, err := a.bookings.Create(ctx, token, booking.CreateBookingInput{
		FlightID:      form.FlightID,
		PassengerName: strings.TrimSpace(form.PassengerName),
		SeatClass:     class,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked %s: flight %s on %s\n",
		created.BookingNr, created.Flight.FlightNr(), created.Flight.DepartureTime().Format(timeLayout))
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	token, target, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}
	updated, err := a.bookings.Cancel(ctx, target, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %s is %s\n", updated.BookingNr, updated.Status)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	token, target, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}
	if err := a.bookings.Delete(ctx, target, token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %s deleted\n", target.BookingNr)
	return nil
}

// lookup refreshes the booking cache and returns the booking named by the
// single id argument.
func (a *app) lookup(ctx context.Context, args []string) (string, domain.Booking, error) {
	if len(args) != 1 {
		return "", domain.Booking{}, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return "", domain.Booking{}, fmt.Errorf("invalid booking id %q", args[0])
	}

	token, err := a.token(ctx)
	if err != nil {
		return "", domain.Booking{}, err
	}
	if _, err := a.bookings.List(ctx, token); err != nil {
		return "", domain.Booking{}, err
	}
	b, ok := a.bookings.Get(id)
	if !ok {
		return "", domain.Booking{}, fmt.Errorf("booking %d not found", id)
	}
	return token, b, nil
}

// describe renders err for the terminal.
func describe(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		lines := make([]string, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			lines = append(lines, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
		}
		return strings.Join(lines, "\n")
	case errors.Is(err, session.ErrNotSignedIn):
		return "You are not signed in"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return "Nothing changed"
	}
	return remote.FriendlyMessage(err, err.Error())
}
