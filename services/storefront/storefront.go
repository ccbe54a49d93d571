// Package storefront wires the client side of the shop: session, cart, checkout and profile.
package storefront

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopfront/lib/myconfig"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mynotify"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/lib/myvault"
	"github.com/MarcGrol/shopfront/services/cart"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/checkout"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/profile"
	"github.com/MarcGrol/shopfront/services/session"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
)

// Dependencies are the infrastructure pieces tests replace.
type Dependencies struct {
	Nower      mytime.Nower
	Scheduler  mytime.Scheduler
	UUIDer     myuuid.UUIDer
	HTTPClient myhttpclient.HTTPSender
}

type Storefront struct {
	Session       *session.Manager
	Cart          *cart.Reconciler
	LocalCart     *cart.LocalCart
	Checkout      *checkout.Service
	Profile       profile.ProfileService
	Notifications *mynotify.Collector
	logger        mylog.Logger
}

func New(c context.Context, cfg *myconfig.Config) (*Storefront, func(), error) {
	uuider := myuuid.RealUUIDer{}
	return NewWithDependencies(c, cfg, Dependencies{
		Nower:      mytime.RealNower{},
		Scheduler:  mytime.RealScheduler{},
		UUIDer:     uuider,
		HTTPClient: myhttpclient.NewJSONClient(cfg.HTTPTimeout, uuider),
	})
}

func NewWithDependencies(c context.Context, cfg *myconfig.Config, deps Dependencies) (*Storefront, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	credentialStore, credentialCleanup, err := mystore.New[myvault.Credential](c, cfg.DataDir)
	if err != nil {
		return nil, func() {}, fmt.Errorf("error creating credential store: %w", err)
	}
	cleanups = append(cleanups, credentialCleanup)

	localCartStore, localCartCleanup, err := mystore.New[cart.LocalCartDocument](c, cfg.DataDir)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("error creating local cart store: %w", err)
	}
	cleanups = append(cleanups, localCartCleanup)

	snapshotStore, snapshotCleanup, err := mystore.New[checkout.Snapshot](c, cfg.DataDir)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("error creating checkout store: %w", err)
	}
	cleanups = append(cleanups, snapshotCleanup)

	pubsub, pubsubCleanup, err := mypubsub.New(c, deps.Nower, deps.UUIDer)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("error creating pubsub: %w", err)
	}
	cleanups = append(cleanups, pubsubCleanup)

	notifications := mynotify.NewCollector(mynotify.NewLogNotifier(mylog.New("notify")))

	manager := session.NewManager(
		myvault.New(credentialStore, deps.Nower),
		identityclient.New(cfg.GatewayURL, deps.HTTPClient),
		session.NewTokenDecoder(),
		deps.Nower,
		deps.Scheduler,
		pubsub,
		cfg.RefreshBuffer,
	)
	authenticated := session.NewAuthenticatedSender(deps.HTTPClient, manager)

	localCart := cart.NewLocalCart(localCartStore, deps.Nower)
	remoteCart := cart.NewRemoteCart(cartclient.New(cfg.CartURL, authenticated), deps.Scheduler, cfg.CartDebounce, notifications)
	reconciler := cart.NewReconciler(manager, localCart, remoteCart, deps.UUIDer, notifications, pubsub)

	checkoutService := checkout.NewService(orderclient.New(cfg.OrderURL, authenticated), snapshotStore, deps.Nower, deps.UUIDer, pubsub, cfg.ShippingFee)

	err = reconciler.Subscribe(c, pubsub)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	err = checkoutService.Subscribe(c, pubsub)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return &Storefront{
		Session:       manager,
		Cart:          reconciler,
		LocalCart:     localCart,
		Checkout:      checkoutService,
		Profile:       profile.New(cfg.GatewayURL, authenticated),
		Notifications: notifications,
		logger:        mylog.New("storefront"),
	}, cleanup, nil
}

// Start loads the anonymous cart and resumes a stored session.
func (s *Storefront) Start(c context.Context) error {
	err := s.LocalCart.Rehydrate(c)
	if err != nil {
		return err
	}

	err = s.Session.Initialize(c)
	if err != nil {
		return fmt.Errorf("error resuming session: %w", err)
	}

	return nil
}

// Login authenticates and moves the anonymous cart into the remote cart, once.
func (s *Storefront) Login(c context.Context, username string, password string) (session.Status, cart.MigrationReport, error) {
	status, err := s.Session.Login(c, username, password)
	if err != nil {
		return session.Status{}, cart.MigrationReport{}, err
	}

	report, err := s.Cart.Migrate(c)
	if err != nil {
		s.logger.Log(c, report.UID, mylog.SeverityError, "Error migrating local cart: %s", err)
		return status, report, err
	}

	return status, report, nil
}

// Logout ends the session. Subscribers drop the remote cart state and the checkout snapshot.
func (s *Storefront) Logout(c context.Context) error {
	return s.Session.Logout(c)
}

// BeginCheckout freezes the selected lines of the current cart.
func (s *Storefront) BeginCheckout(c context.Context) (checkout.Snapshot, error) {
	items, err := s.Cart.Items(c)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	return s.Checkout.Begin(c, items)
}

// Close sends pending quantity changes and stops all timers. Logout drops them unsent.
func (s *Storefront) Close() {
	flushed := s.Cart.Flush()
	if flushed > 0 {
		s.logger.Log(context.Background(), "", mylog.SeverityDebug, "Flushed %d pending quantity changes", flushed)
	}
	s.Cart.Stop()
	s.Session.Stop()
}
