package action

import "context"

// MockExecutor is a test double for the Executor interface. It records
// invocations in order and can be primed to fail specific calls.
type MockExecutor struct {
	CallErrs  map[string]error // keyed by endpoint
	NotifyErr error

	Calls []APICall
	Notes []Notification
}

func (m *MockExecutor) CallAPI(_ context.Context, call APICall) error {
	m.Calls = append(m.Calls, call)
	if m.CallErrs != nil {
		if err, ok := m.CallErrs[call.Endpoint]; ok {
			return err
		}
	}
	return nil
}

func (m *MockExecutor) Notify(_ context.Context, note Notification) error {
	m.Notes = append(m.Notes, note)
	return m.NotifyErr
}
