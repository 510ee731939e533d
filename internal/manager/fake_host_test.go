package manager_test

import (
	"context"
	"net/http"
	"sync"

	"plugin-endpoints/internal/host"
)

// fakeHost 模拟宿主运行时, 记录调用顺序
type fakeHost struct {
	mu         sync.Mutex
	installed  []host.PluginIdentifier
	outcome    host.UpdateOutcome
	upgradeErr error
	refreshErr error
	listErr    error
	calls      []string
}

func (f *fakeHost) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeHost) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeHost) ListInstalled(ctx context.Context) ([]host.PluginIdentifier, error) {
	f.record("list")
	return f.installed, f.listErr
}

func (f *fakeHost) IsAdminRequest(r *http.Request) bool { return false }

func (f *fakeHost) ForceRefresh(ctx context.Context) error {
	f.record("refresh")
	return f.refreshErr
}

func (f *fakeHost) ClearTransient(ctx context.Context) error {
	f.record("clear")
	return nil
}

func (f *fakeHost) Activate(ctx context.Context, id host.PluginIdentifier) error {
	f.record("activate:" + id.String())
	return nil
}

func (f *fakeHost) Deactivate(ctx context.Context, id host.PluginIdentifier) error {
	f.record("deactivate:" + id.String())
	return nil
}

func (f *fakeHost) Upgrade(ctx context.Context, id host.PluginIdentifier) (host.UpdateOutcome, error) {
	f.record("upgrade:" + id.String())
	return f.outcome, f.upgradeErr
}
