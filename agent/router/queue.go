package router

import (
	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

// queueItem is one pending agent invocation. note carries a directive
// injected by a prior agent's handoff.
type queueItem struct {
	intent contractx.DepartmentIntent
	note   string
}

// workQueue is the FIFO of pending invocations for a single Route call.
// Handoffs appended while draining are serviced after everything already
// queued, which approximates breadth-first sequencing of departments.
type workQueue struct {
	items []queueItem
}

func (q *workQueue) push(item queueItem) {
	q.items = append(q.items, item)
}

func (q *workQueue) pop() (queueItem, bool) {
	if len(q.items) == 0 {
		return queueItem{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *workQueue) len() int {
	return len(q.items)
}

// remaining returns the items left queued, in arrival order.
func (q *workQueue) remaining() []queueItem {
	return q.items
}

// dequeueDecision tags what the router does with a popped queue item.
// Skips are deliberate filtering, not errors, and consume no turn budget.
type dequeueDecision int

const (
	decisionDispatch dequeueDecision = iota
	decisionSkipUnknown
	decisionSkipVisited
	decisionSkipUnbound
)

func (d dequeueDecision) String() string {
	switch d {
	case decisionDispatch:
		return "dispatch"
	case decisionSkipUnknown:
		return "skip-unknown"
	case decisionSkipVisited:
		return "skip-duplicate"
	case decisionSkipUnbound:
		return "skip-unbound"
	default:
		return "invalid"
	}
}

func classifyDequeue(
	item queueItem,
	visited map[contractx.DepartmentIntent]bool,
	agents map[contractx.DepartmentIntent]contractx.DomainAgent,
) dequeueDecision {
	switch {
	case item.intent.IsUnknown():
		return decisionSkipUnknown
	case visited[item.intent]:
		return decisionSkipVisited
	default:
		if _, ok := agents[item.intent]; !ok {
			return decisionSkipUnbound
		}
		return decisionDispatch
	}
}

// unresolvedIntents reports the intents left queued but never dispatched.
// Unknown entries and in-queue duplicates are excluded: they would have
// been discarded, not worked on, had the budget allowed more turns.
func unresolvedIntents(
	remaining []queueItem,
	visited map[contractx.DepartmentIntent]bool,
) []contractx.DepartmentIntent {
	unresolved := make([]contractx.DepartmentIntent, 0, len(remaining))
	seen := make(map[contractx.DepartmentIntent]bool, len(remaining))
	for _, item := range remaining {
		if item.intent.IsUnknown() || visited[item.intent] || seen[item.intent] {
			continue
		}
		seen[item.intent] = true
		unresolved = append(unresolved, item.intent)
	}
	return unresolved
}
