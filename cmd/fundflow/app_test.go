package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fundflow-dev/fundflow/db"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/store"
)

func TestCloseDrainsNotificationsBeforeStore(t *testing.T) {
	gdb, err := db.ConnectDatabase("file:TestCloseDrainsNotificationsBeforeStore?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	st := store.NewGormStore(gdb)
	dispatcher := services.NewDispatcher(time.Second)

	a := &app{
		store:      st,
		dispatcher: dispatcher,
		ledger:     services.NewLedgerService(st, nil, nil, nil, dispatcher, services.LedgerOptions{PaymentTimeout: time.Second}),
	}

	var pingedOpen atomic.Bool

	dispatcher.Go("send late email", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		pingedOpen.Store(st.Ping(ctx) == nil)
		return nil
	})

	a.Close()

	if !pingedOpen.Load() {
		t.Error("store was closed before pending notifications finished")
	}

	if err := st.Ping(context.Background()); err == nil {
		t.Error("store still open after Close")
	}
}
