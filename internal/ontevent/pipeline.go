package ontevent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wtsi-npg/npg-notifications/internal/config"
	"github.com/wtsi-npg/npg-notifications/internal/porch"
	"github.com/wtsi-npg/npg-notifications/internal/warehouse"
)

// Pipeline identity on the Porch server. Changing the version creates a
// distinct queue whose tasks can be re-run.
const (
	PipelineName    = "ont-event-email"
	PipelineURI     = "https://github.com/wtsi-npg/npg-notifications"
	PipelineVersion = "1.0.0"
)

// claimBatchSize caps how many tasks one run consumes. The server may
// grant fewer.
const claimBatchSize = 100

// TaskQueue is the Porch surface the add and run flows use.
type TaskQueue interface {
	Add(ctx context.Context, task porch.Task[ContactEmail]) (bool, error)
	Claim(ctx context.Context, n int) ([]porch.Task[ContactEmail], error)
	Done(ctx context.Context, task porch.Task[ContactEmail]) (porch.Task[ContactEmail], error)
	Retry(ctx context.Context, task porch.Task[ContactEmail]) (porch.Task[ContactEmail], error)
}

// ContactLookup resolves runs to studies and studies to contacts.
type ContactLookup interface {
	StudiesForRun(ctx context.Context, experimentName string, instrumentSlot int, flowcellID string) ([]warehouse.Study, error)
	StudyContacts(ctx context.Context, idStudyLims string) ([]string, error)
}

// MailSender delivers one notification email.
type MailSender interface {
	Send(contacts []string, subject, body string) error
}

var _ TaskQueue = (*porch.Client[ContactEmail])(nil)
var _ ContactLookup = (*warehouse.Store)(nil)

// NewClient builds the Porch client for the ONT event email pipeline
// from the application configuration.
func NewClient(cfg *config.Config, log *slog.Logger) (*porch.Client[ContactEmail], error) {
	server := porch.ServerConfig{
		URL:           cfg.Porch.URL,
		AdminToken:    cfg.Porch.AdminToken,
		PipelineToken: cfg.Porch.PipelineToken,
	}
	return porch.New[ContactEmail](
		Codec{},
		PipelineName,
		PipelineURI,
		PipelineVersion,
		server,
		porch.WithTimeout(time.Duration(cfg.Porch.TimeoutSeconds)*time.Second),
		porch.WithLogger(log),
	)
}

// Counts summarizes one producer or consumer pass.
type Counts struct {
	Processed int
	Succeeded int
	Errors    int
}

// RunRecord is one line of producer input: the metadata identifying an
// ONT run and the path its data were uploaded to.
type RunRecord struct {
	ExperimentName string `json:"experiment_name"`
	InstrumentSlot int    `json:"instrument_slot"`
	FlowcellID     string `json:"flowcell_id"`
	Path           string `json:"path"`
}

// AddTasks reads run records from r, one JSON object per line, and adds
// an email task per record for the given event. Each record is echoed
// to w after processing so producers can be chained. A record that
// fails to parse or submit is counted and logged; the rest of the input
// still processes.
func AddTasks(ctx context.Context, queue TaskQueue, event EventType, r io.Reader, w io.Writer, log *slog.Logger) Counts {
	var counts Counts

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		counts.Processed++

		var record RunRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			counts.Errors++
			log.Error("run record is not valid JSON", "error", err)
			continue
		}

		task := porch.NewTask(ContactEmail{
			ExperimentName: record.ExperimentName,
			InstrumentSlot: record.InstrumentSlot,
			FlowcellID:     record.FlowcellID,
			Path:           record.Path,
			Event:          event,
		})

		created, err := queue.Add(ctx, task)
		if err != nil {
			counts.Errors++
			log.Error("failed to add task", "task", task.Input.String(), "error", err)
			continue
		}
		if created {
			counts.Succeeded++
			log.Info("task added", "task", task.Input.String())
		} else {
			log.Info("task already exists", "task", task.Input.String())
		}

		fmt.Fprintln(w, line)
	}
	if err := scanner.Err(); err != nil {
		counts.Errors++
		log.Error("failed to read run records", "error", err)
	}

	return counts
}

// RunTasks claims a batch of email tasks and runs each one: the studies
// on the run are looked up in the warehouse, their contacts are merged,
// and a single email is sent for the whole run. A run with no contacts
// completes without sending.
//
// A task whose warehouse lookup or email delivery fails is requeued
// with Retry: both are likely transient, and because there is only one
// email per run a requeue cannot spam anyone. This task-level requeue
// is distinct from the request-level retrying inside the Porch client.
func RunTasks(ctx context.Context, queue TaskQueue, lookup ContactLookup, sender MailSender, domain string, log *slog.Logger) Counts {
	var counts Counts

	claimed, err := queue.Claim(ctx, claimBatchSize)
	if err != nil {
		counts.Errors++
		log.Error("failed to claim tasks", "error", err)
		return counts
	}

	for _, task := range claimed {
		counts.Processed++
		taskLog := log.With("task", task.Input.String(), "correlation_id", uuid.NewString())

		if err := runOne(ctx, queue, lookup, sender, domain, task, taskLog); err != nil {
			counts.Errors++
			taskLog.Error("task failed, requeueing", "error", err)
			if _, retryErr := queue.Retry(ctx, task); retryErr != nil {
				taskLog.Error("failed to requeue task", "error", retryErr)
			}
			continue
		}
		counts.Succeeded++
	}

	return counts
}

func runOne(ctx context.Context, queue TaskQueue, lookup ContactLookup, sender MailSender, domain string, task porch.Task[ContactEmail], log *slog.Logger) error {
	input := task.Input

	studies, err := lookup.StudiesForRun(ctx, input.ExperimentName, input.InstrumentSlot, input.FlowcellID)
	if err != nil {
		return fmt.Errorf("find studies for run: %w", err)
	}

	// One email goes to the union of contacts across all studies in
	// the run.
	seen := make(map[string]struct{})
	var contacts []string
	for _, study := range studies {
		studyContacts, err := lookup.StudyContacts(ctx, study.IDStudyLims)
		if err != nil {
			return fmt.Errorf("find contacts for study %s: %w", study.IDStudyLims, err)
		}
		for _, contact := range studyContacts {
			if _, ok := seen[contact]; ok {
				continue
			}
			seen[contact] = struct{}{}
			contacts = append(contacts, contact)
		}
	}

	sort.Strings(contacts)

	if len(contacts) == 0 {
		log.Info("no contacts found", "studies", len(studies))
		if _, err := queue.Done(ctx, task); err != nil {
			return fmt.Errorf("mark task done: %w", err)
		}
		return nil
	}

	log.Info("preparing email", "studies", len(studies), "contacts", len(contacts))

	body, err := input.Body(studies, domain)
	if err != nil {
		return err
	}
	if err := sender.Send(contacts, input.Subject(), body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if _, err := queue.Done(ctx, task); err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	return nil
}
