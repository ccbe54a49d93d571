package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mynotify"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/cart/cartevents"
	"github.com/MarcGrol/shopfront/services/checkout/checkoutevents"
	"github.com/MarcGrol/shopfront/services/session/sessionevents"
)

type reconcilerContext struct {
	reconciler *Reconciler
	session    *MockSessionChecker
	local      *LocalCart
	store      mystore.Store[LocalCartDocument]
	client     *cartclient.MockCartClient
	notified   *mynotify.Collector
	events     *[]myevents.EventEnvelope
}

func setupReconciler(t *testing.T) reconcilerContext {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	clock := mytime.NewFakeScheduler(mytime.ExampleTime)

	store, _, err := mystore.NewInMemoryStore[LocalCartDocument](c)
	require.NoError(t, err)
	local := NewLocalCart(store, clock)
	require.NoError(t, local.Rehydrate(c))

	client := cartclient.NewMockCartClient(ctrl)
	notified := mynotify.NewCollector(nil)
	remote := NewRemoteCart(client, clock, debounce, notified)

	session := NewMockSessionChecker(ctrl)

	ps := mypubsub.NewLocalPubSub(clock, &myuuid.SequenceUUIDer{Prefix: "evt"})
	events := []myevents.EventEnvelope{}
	require.NoError(t, ps.Subscribe(c, cartevents.TopicName, func(c context.Context, e myevents.EventEnvelope) error {
		events = append(events, e)
		return nil
	}))

	return reconcilerContext{
		reconciler: NewReconciler(session, local, remote, &myuuid.SequenceUUIDer{Prefix: "migration"}, notified, ps),
		session:    session,
		local:      local,
		store:      store,
		client:     client,
		notified:   notified,
		events:     &events,
	}
}

type migratedRecorder struct {
	migrated []cartevents.CartMigrated
}

func (r *migratedRecorder) OnCartMigrated(c context.Context, topic string, event cartevents.CartMigrated) error {
	r.migrated = append(r.migrated, event)
	return nil
}

func TestReconcilerMode(t *testing.T) {
	c := context.TODO()

	t.Run("Anonymous uses local cart only", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(false).AnyTimes()

		// when
		err := tc.reconciler.Add(c, apple)

		// then
		require.NoError(t, err)
		assert.Equal(t, ModeLocal, tc.reconciler.Mode(c))
		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("Authenticated uses remote cart only", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(true).AnyTimes()
		tc.client.EXPECT().AddItem(gomock.Any(), cartclient.AddItemRequest{SkuID: "A", Quantity: 1}).Return(nil)
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("A", 1)}}, nil)

		// when
		err := tc.reconciler.Add(c, apple)

		// then
		require.NoError(t, err)
		assert.Equal(t, ModeRemote, tc.reconciler.Mode(c))
		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Mode follows session per call", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		gomock.InOrder(
			tc.session.EXPECT().HasValidSession(gomock.Any()).Return(true),
			tc.session.EXPECT().HasValidSession(gomock.Any()).Return(false),
		)

		// when
		first := tc.reconciler.Provider(c)
		second := tc.reconciler.Provider(c)

		// then
		assert.IsType(t, &RemoteCart{}, first)
		assert.IsType(t, &LocalCart{}, second)
	})
}

func TestReconcilerMigrate(t *testing.T) {
	c := context.TODO()

	t.Run("Three apples move to the server", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, tc.local.Add(c, apple))
		}
		tc.client.EXPECT().AddItem(gomock.Any(), cartclient.AddItemRequest{SkuID: "A", Quantity: 3}).Return(nil).Times(1)
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("A", 3)}}, nil)

		// when
		report, err := tc.reconciler.Migrate(c)

		// then
		require.NoError(t, err)
		assert.True(t, report.Complete())
		assert.Equal(t, "migration1", report.UID)
		assert.Equal(t, []string{"A"}, skusOf(report.Migrated))

		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)

		doc, _, err := tc.store.Get(c, LocalCartKey)
		require.NoError(t, err)
		assert.Empty(t, doc.Items)

		assert.Empty(t, tc.notified.Drain())

		recorder := &migratedRecorder{}
		require.Len(t, *tc.events, 1)
		require.NoError(t, cartevents.DispatchEvent(c, (*tc.events)[0], recorder))
		assert.Equal(t, []cartevents.CartMigrated{{MigrationUID: "migration1", MigratedSkus: []string{"A"}, FailedSkus: []string{}}}, recorder.migrated)
	})

	t.Run("Failed lines are skipped and reported", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		require.NoError(t, tc.local.Add(c, apple))
		require.NoError(t, tc.local.Add(c, banana))
		gomock.InOrder(
			tc.client.EXPECT().AddItem(gomock.Any(), cartclient.AddItemRequest{SkuID: "A", Quantity: 1}).
				Return(myerrors.NewConflictError(errors.New("out of stock"))),
			tc.client.EXPECT().AddItem(gomock.Any(), cartclient.AddItemRequest{SkuID: "B", Quantity: 2}).Return(nil),
		)
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("B", 2)}}, nil)

		// when
		report, err := tc.reconciler.Migrate(c)

		// then
		require.NoError(t, err)
		assert.False(t, report.Complete())
		assert.Equal(t, []string{"B"}, skusOf(report.Migrated))
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "A", report.Failed[0].Item.SkuID)
		assert.Contains(t, report.Failed[0].Reason, "out of stock")

		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)

		notifications := tc.notified.Drain()
		require.Len(t, notifications, 1)
		assert.Contains(t, notifications[0].Message, "Apple")
	})

	t.Run("Local cart cleared even when reload fails", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		require.NoError(t, tc.local.Add(c, apple))
		tc.client.EXPECT().AddItem(gomock.Any(), gomock.Any()).Return(nil)
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{}, myerrors.NewUnavailableError(errors.New("down")))

		// when
		report, err := tc.reconciler.Migrate(c)

		// then
		require.NoError(t, err)
		assert.True(t, report.Complete())
		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Empty local cart", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{}, nil)

		// when
		report, err := tc.reconciler.Migrate(c)

		// then
		require.NoError(t, err)
		assert.Empty(t, report.Migrated)
		assert.Empty(t, report.Failed)
	})
}

func TestReconcilerLogout(t *testing.T) {
	c := context.TODO()

	t.Run("Pending updates are dropped on logout", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(true).AnyTimes()
		tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("A", 1)}}, nil)
		require.NoError(t, tc.reconciler.UpdateQuantity(c, "A", 3))

		// when
		err := tc.reconciler.OnLoggedOut(c, sessionevents.TopicName, sessionevents.LoggedOut{Subject: "marc", Forced: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, tc.reconciler.remote.PendingUpdates())
	})
}

func TestReconcilerOrderPlaced(t *testing.T) {
	c := context.TODO()

	t.Run("Remote cart is refetched", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(true).AnyTimes()
		gomock.InOrder(
			tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("A", 1), serverItem("B", 2)}}, nil),
			tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("B", 2)}}, nil),
		)
		items, err := tc.reconciler.Items(c)
		require.NoError(t, err)
		require.Len(t, items, 2)

		// when
		err = tc.reconciler.OnOrderPlaced(c, checkoutevents.TopicName, checkoutevents.OrderPlaced{OrderCode: "ORD-1", Skus: []string{"A"}})

		// then
		require.NoError(t, err)
		items, err = tc.reconciler.Items(c)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B", items[0].SkuID)
	})

	t.Run("Failed refetch is retried on the next read", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(true).AnyTimes()
		gomock.InOrder(
			tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{serverItem("A", 1)}}, nil),
			tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{}, myerrors.NewUnavailableError(errors.New("timeout"))),
			tc.client.EXPECT().GetCart(gomock.Any()).Return(cartclient.Cart{Items: []cartclient.Item{}}, nil),
		)
		_, err := tc.reconciler.Items(c)
		require.NoError(t, err)

		// when
		err = tc.reconciler.OnOrderPlaced(c, checkoutevents.TopicName, checkoutevents.OrderPlaced{OrderCode: "ORD-1", Skus: []string{"A"}})

		// then
		require.NoError(t, err)
		items, err := tc.reconciler.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Local mode removes the ordered lines", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(false).AnyTimes()
		require.NoError(t, tc.reconciler.Add(c, apple))
		require.NoError(t, tc.reconciler.Add(c, banana))

		// when
		err := tc.reconciler.OnOrderPlaced(c, checkoutevents.TopicName, checkoutevents.OrderPlaced{OrderCode: "ORD-1", Skus: []string{"A", "Z"}})

		// then
		require.NoError(t, err)
		items, err := tc.local.Items(c)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B", items[0].SkuID)
	})

	t.Run("Delivered through the checkout topic", func(t *testing.T) {
		// given
		tc := setupReconciler(t)
		tc.session.EXPECT().HasValidSession(gomock.Any()).Return(false).AnyTimes()
		require.NoError(t, tc.reconciler.Add(c, apple))
		ps := mypubsub.NewLocalPubSub(mytime.NewFakeScheduler(mytime.ExampleTime), &myuuid.SequenceUUIDer{Prefix: "evt"})
		require.NoError(t, tc.reconciler.Subscribe(c, ps))

		// when
		err := ps.Publish(c, checkoutevents.TopicName, checkoutevents.OrderPlaced{OrderCode: "ORD-1", Skus: []string{"A"}})

		// then
		require.NoError(t, err)
		items, err := tc.local.Items(c)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
