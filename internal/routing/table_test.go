package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/store/memory"
)

type fakeThreadCreator struct {
	mu      sync.Mutex
	next    int
	created []string
	fail    bool
}

func (f *fakeThreadCreator) CreateThread(_ context.Context, title string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("telegram says no")
	}
	f.next++
	f.created = append(f.created, title)
	return 100 + f.next, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	cards []*store.RoutingEntry
}

func (r *recordingNotifier) SendContactCard(_ context.Context, entry *store.RoutingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.cards = append(r.cards, &cp)
	return nil
}

func TestFindOrCreate_FirstContactProvisions(t *testing.T) {
	creator := &fakeThreadCreator{}
	notifier := &recordingNotifier{}
	table := NewTable(memory.NewEntryStore(), creator, notifier)

	entry, err := table.FindOrCreate(context.Background(), store.PlatformTelegram, "42", "Ann Lee")
	if err != nil {
		t.Fatal(err)
	}
	if entry.ThreadID != 101 {
		t.Errorf("ThreadID = %d, want 101", entry.ThreadID)
	}
	if len(creator.created) != 1 || creator.created[0] != "Ann Lee" {
		t.Errorf("created topics = %v", creator.created)
	}
	if len(notifier.cards) != 1 {
		t.Errorf("contact cards = %d, want 1", len(notifier.cards))
	}
	if notifier.cards[0].ThreadID != 101 {
		t.Errorf("card sent before thread id was known: %+v", notifier.cards[0])
	}
}

func TestFindOrCreate_Idempotent(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	first, err := table.FindOrCreate(ctx, store.PlatformVK, "9", "Kim")
	if err != nil {
		t.Fatal(err)
	}
	second, err := table.FindOrCreate(ctx, store.PlatformVK, "9", "Kim")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Errorf("two entries for one chat: %s vs %s", first.ID, second.ID)
	}
	if len(creator.created) != 1 {
		t.Errorf("created %d topics, want 1", len(creator.created))
	}
}

func TestFindOrCreate_ConcurrentFirstContact(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var failures atomic.Int32
	threads := make([]int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := table.FindOrCreate(ctx, store.PlatformTelegram, "777", "Racer")
			if err != nil || entry.ThreadID == 0 {
				failures.Add(1)
				return
			}
			threads[i] = entry.ThreadID
		}(i)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		t.Fatalf("%d workers failed", n)
	}
	if len(creator.created) != 1 {
		t.Errorf("created %d topics under concurrency, want 1", len(creator.created))
	}
	for i := 1; i < workers; i++ {
		if threads[i] != threads[0] {
			t.Fatalf("workers saw different threads: %v", threads)
		}
	}
}

func TestFindOrCreate_ProvisioningFailureKeepsEntry(t *testing.T) {
	creator := &fakeThreadCreator{fail: true}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	entry, err := table.FindOrCreate(ctx, store.PlatformTelegram, "13", "Unlucky")
	if err != nil {
		t.Fatal(err)
	}
	if entry.ThreadID != 0 {
		t.Fatalf("ThreadID = %d, want 0 after failed provisioning", entry.ThreadID)
	}

	// Capability recovers; the next contact provisions the kept entry.
	creator.fail = false
	entry2, err := table.FindOrCreate(ctx, store.PlatformTelegram, "13", "Unlucky")
	if err != nil {
		t.Fatal(err)
	}
	if entry2.ID != entry.ID {
		t.Error("retry created a second entry")
	}
	if entry2.ThreadID == 0 {
		t.Error("retry did not provision the topic")
	}
}

func TestProvisionThread_Idempotent(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	entry, err := table.FindOrCreate(ctx, store.PlatformExternal, "e1", "Ext")
	if err != nil {
		t.Fatal(err)
	}

	got, err := table.ProvisionThread(ctx, entry)
	if err != nil {
		t.Fatal(err)
	}
	if got != entry.ThreadID {
		t.Errorf("ProvisionThread = %d, want existing %d", got, entry.ThreadID)
	}
	if len(creator.created) != 1 {
		t.Errorf("created %d topics, want 1", len(creator.created))
	}
}

func TestProvisionThread_Failure(t *testing.T) {
	creator := &fakeThreadCreator{fail: true}
	entries := memory.NewEntryStore()
	table := NewTable(entries, creator, nil)
	ctx := context.Background()

	entry, err := entries.Create(ctx, &store.RoutingEntry{Platform: store.PlatformVK, ChatID: "v7"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = table.ProvisionThread(ctx, entry)
	if !errors.Is(err, ErrProvisioningFailed) {
		t.Errorf("err = %v, want ErrProvisioningFailed", err)
	}
}

func TestEntryByThread(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	created, err := table.FindOrCreate(ctx, store.PlatformVK, "55", "Kim")
	if err != nil {
		t.Fatal(err)
	}

	entry, err := table.EntryByThread(ctx, created.ThreadID)
	if err != nil {
		t.Fatal(err)
	}
	if entry.ChatID != "55" || entry.Platform != store.PlatformVK {
		t.Errorf("wrong entry: %+v", entry)
	}

	tests := []struct {
		name     string
		threadID int
	}{
		{"unknown thread", 9999},
		{"zero thread", 0},
		{"negative thread", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := table.EntryByThread(ctx, tt.threadID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestResolveByThread(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)
	ctx := context.Background()

	created, err := table.FindOrCreate(ctx, store.PlatformExternal, "x", "")
	if err != nil {
		t.Fatal(err)
	}

	platform, err := table.ResolveByThread(ctx, created.ThreadID)
	if err != nil {
		t.Fatal(err)
	}
	if platform != store.PlatformExternal {
		t.Errorf("platform = %q", platform)
	}
}

func TestProvisionLocked_TitleFallback(t *testing.T) {
	creator := &fakeThreadCreator{}
	table := NewTable(memory.NewEntryStore(), creator, nil)

	_, err := table.FindOrCreate(context.Background(), store.PlatformTelegram, "321", "")
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("%s %s", store.PlatformTelegram, "321")
	if len(creator.created) != 1 || creator.created[0] != want {
		t.Errorf("topic title = %v, want %q", creator.created, want)
	}
}
