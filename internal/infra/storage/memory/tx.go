package memory

import "context"

type txKey struct{}

// tx журнал отмены изменений, сделанных внутри транзакции
type tx struct {
	undo []func()
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*tx)
	return ok
}

// journal регистрирует откат изменения; вызывается под s.mu
func journal(ctx context.Context, undo func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.undo = append(t.undo, undo)
	}
}

// TxManager выполняет транзакции над Store строго по одной
// При ошибке изменения откатываются в обратном порядке
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	t := &tx{}
	defer func() {
		p := recover()
		if err != nil || p != nil {
			m.store.mu.Lock()
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
			m.store.mu.Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, t))
}
