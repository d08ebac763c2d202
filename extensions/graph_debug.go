package extensions

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pumped-fn/tinystore"
)

const graphDebugMessage = "Dependency Resolution Error"

// GraphDebugExtension logs dependency graph visualization when errors occur.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	logger := extensions.NewHumanLogger(os.Stdout, logrus.ErrorLevel)
//	ext := extensions.NewGraphDebugExtension(logger)
//
//	// Structured JSON logging (compact, machine-readable)
//	l := logrus.New()
//	l.SetFormatter(&logrus.JSONFormatter{})
//	ext := extensions.NewGraphDebugExtension(logrus.NewEntry(l))
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentLogger())
type GraphDebugExtension struct {
	tinystore.BaseExtension

	mu     sync.Mutex
	failed map[string]error
	logger *logrus.Entry
}

// NewGraphDebugExtension creates a new graph debug extension
func NewGraphDebugExtension(logger *logrus.Entry) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: tinystore.NewBaseExtension("graph-debug"),
		failed:        make(map[string]error),
		logger:        logger,
	}
}

// OnError logs the dependency graph when resolution fails
func (e *GraphDebugExtension) OnError(err error, op *tinystore.Operation, registry *tinystore.Registry) {
	e.mu.Lock()
	e.failed[op.StoreID] = err
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"store":            op.StoreID,
		"error":            err.Error(),
		"operation":        string(op.Kind),
		"dependency_graph": e.formatDependencyGraph(registry, op.StoreID, err),
	}).Error(graphDebugMessage)
}

// Failed returns the last recorded failure of a store
func (e *GraphDebugExtension) Failed(storeID string) (error, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err, ok := e.failed[storeID]
	return err, ok
}

func (e *GraphDebugExtension) formatDependencyGraph(registry *tinystore.Registry, failedID string, failedErr error) string {
	var sb strings.Builder
	graph := registry.ExportDependencyGraph()

	if len(graph) == 0 {
		sb.WriteString("\n(empty - no reactive dependencies tracked)")
		return sb.String()
	}

	sb.WriteString("\n")

	parents := make([]string, 0, len(graph))
	for parent := range graph {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	for _, parent := range parents {
		children := graph[parent]
		parentStatus := e.statusMark(registry, parent, failedID)

		if len(children) == 0 {
			sb.WriteString(fmt.Sprintf("  %s%s (no dependents)\n", parent, parentStatus))
			continue
		}

		sb.WriteString(fmt.Sprintf("  %s%s\n", parent, parentStatus))

		for i, child := range children {
			childName := child + e.statusMark(registry, child, failedID)
			if i == len(children)-1 {
				sb.WriteString(fmt.Sprintf("    └─> %s\n", childName))
			} else {
				sb.WriteString(fmt.Sprintf("    ├─> %s\n", childName))
			}
		}
	}

	if failedErr != nil {
		sb.WriteString("\nError Details:\n")
		sb.WriteString(fmt.Sprintf("  Store: %s\n", failedID))
		sb.WriteString(fmt.Sprintf("  Error: %v\n", failedErr))
	}

	return sb.String()
}

func (e *GraphDebugExtension) statusMark(registry *tinystore.Registry, id, failedID string) string {
	if id == failedID {
		return " ❌ FAILED"
	}
	s, ok := registry.Lookup(id)
	if !ok {
		return " (released)"
	}
	switch s.Status() {
	case tinystore.StatusSuccess:
		return " ✓"
	case tinystore.StatusError:
		return fmt.Sprintf(" ❌ (error: %v)", s.Err())
	case tinystore.StatusPending:
		return " (pending)"
	default:
		return " (idle)"
	}
}

// NewSilentLogger returns a logger that discards all output
func NewSilentLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// NewHumanLogger returns a logger writing HumanFormatter output to w
func NewHumanLogger(w io.Writer, level logrus.Level) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&HumanFormatter{})
	return logrus.NewEntry(l)
}

// HumanFormatter is a logrus.Formatter that formats logs for human readability
// with proper line breaks and visual formatting (especially for dependency graphs)
type HumanFormatter struct{}

func (f *HumanFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.Message == graphDebugMessage {
		return f.formatDependencyError(entry), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(entry.Level.String()), entry.Message))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %v\n", k, entry.Data[k]))
	}
	return []byte(sb.String()), nil
}

func (f *HumanFormatter) formatDependencyError(entry *logrus.Entry) []byte {
	field := func(key string) string {
		if v, ok := entry.Data[key]; ok {
			return fmt.Sprint(v)
		}
		return ""
	}

	rule := strings.Repeat("=", 70)
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(rule + "\n")
	sb.WriteString("[GraphDebug] " + graphDebugMessage + "\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("\nFailed Store: %s\n", field("store")))
	sb.WriteString(fmt.Sprintf("Error: %s\n", field("error")))
	sb.WriteString(fmt.Sprintf("Operation: %s\n", field("operation")))
	sb.WriteString(fmt.Sprintf("\nDependency Graph:%s", field("dependency_graph")))
	sb.WriteString(rule + "\n")
	sb.WriteString("\n")
	return []byte(sb.String())
}
