// Package builder turns "build"-class action items into generated
// deliverables. Writing the artifact is the entire contract: nothing
// generated here is ever executed or deployed.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/openclaw/standup/internal/generate"
	"github.com/openclaw/standup/internal/items"
	"github.com/openclaw/standup/internal/logging"
)

// Result references what an execution produced. Exactly one of Path
// and Message is normally set; a nil *Result means nothing was
// produced at all.
type Result struct {
	Path    string
	Message string
}

// contentClass describes one long-form deliverable type: its output
// sub-directory and the prompt template that shapes it.
type contentClass struct {
	subdir string
	prompt string
}

// contentClasses maps the content-class item types to their templates.
// Generic "build" and "remind" are handled separately.
var contentClasses = map[string]contentClass{
	"essay": {
		subdir: "essays",
		prompt: "Write a thoughtful long-form essay.\nTopic: %s\nAngle: %s\nWhy it matters: %s\n\nAim for depth over breadth. Markdown, with a title line.",
	},
	"tweets": {
		subdir: "tweets",
		prompt: "Write a thread of 5-8 tweets.\nTopic: %s\nAngle: %s\nWhy now: %s\n\nNumber each tweet. Punchy, no hashtag spam.",
	},
	"x_article": {
		subdir: "x-articles",
		prompt: "Write a long-form article for X.\nTopic: %s\nAngle: %s\nWhy it matters: %s\n\nHook first, strong sections, a closing takeaway. Markdown.",
	},
	"trades": {
		subdir: "trades",
		prompt: "Write a trade plan.\nSetup: %s\nExecution approach: %s\nThesis: %s\n\nInclude entry, invalidation, targets and sizing notes. This is a plan document, not an order.",
	},
	"good_life": {
		subdir: "good-life",
		prompt: "Write a reflective piece on living well.\nPrompt: %s\nDirection: %s\nWhy: %s\n\nPersonal register, concrete practices. Markdown.",
	},
	"prd": {
		subdir: "prds",
		prompt: "Write a product requirements document.\nFeature: %s\nImplementation sketch: %s\nMotivation: %s\n\nSections: Problem, Goals, Non-goals, Requirements, Open questions.",
	},
	"integration_instructions": {
		subdir: "integration-instructions",
		prompt: "Write step-by-step integration instructions.\nIntegration: %s\nApproach: %s\nPurpose: %s\n\nNumbered steps, prerequisites first, verification last.",
	},
}

// Builder executes build-class action items into deliverable files.
type Builder struct {
	root     string
	gen      generate.Generator
	gateway  *gatewayClient
	fallback bool
	approval map[string]bool
	log      *logging.Logger
	now      func() time.Time
}

// Config wires a Builder.
type Config struct {
	// Root is the deliverables storage root.
	Root string
	// Generator produces deliverable content.
	Generator generate.Generator
	// GatewayURL delegates generic builds to an external service when
	// set; empty disables delegation.
	GatewayURL string
	// Fallback enables local generation when delegation is absent or
	// fails.
	Fallback bool
	// ApprovalTypes are item types diverted to the pending-approval
	// queue instead of being executed.
	ApprovalTypes []string
	Logger        *logging.Logger
}

// New creates a builder rooted at cfg.Root. The root directory must be
// creatable; that failure surfaces to the operator.
func New(cfg Config) (*Builder, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("builder: create deliverables root: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NopLogger()
	}

	approval := make(map[string]bool, len(cfg.ApprovalTypes))
	for _, t := range cfg.ApprovalTypes {
		approval[t] = true
	}

	b := &Builder{
		root:     cfg.Root,
		gen:      cfg.Generator,
		fallback: cfg.Fallback,
		approval: approval,
		log:      log,
		now:      time.Now,
	}
	if cfg.GatewayURL != "" {
		b.gateway = newGatewayClient(cfg.GatewayURL)
	}
	return b, nil
}

// Execute turns one action item into a deliverable. An item with an
// empty description produces nothing (nil, nil). Approval-gated types
// are queued rather than executed. Content-class types generate
// directly; generic "build" tries the gateway first and falls back to
// one local generation; "remind" just surfaces its text.
func (b *Builder) Execute(ctx context.Context, item items.Item) (*Result, error) {
	if strings.TrimSpace(item.What) == "" {
		return nil, nil
	}

	if b.approval[item.Type] {
		if err := b.queueForApproval(item); err != nil {
			return nil, err
		}
		b.log.Info("item queued for approval", "item", item.ID, "type", item.Type)
		return &Result{Message: fmt.Sprintf("queued for approval (%s)", item.Type)}, nil
	}

	if class, ok := contentClasses[item.Type]; ok {
		return b.buildContent(ctx, item, class)
	}

	switch item.Type {
	case "build":
		return b.buildGeneric(ctx, item)
	default: // "remind" and anything unrecognized
		return &Result{Message: "reminder: " + item.What}, nil
	}
}

// buildContent runs one generation for a content-class item and writes
// the deliverable plus its class manifest line.
func (b *Builder) buildContent(ctx context.Context, item items.Item, class contentClass) (*Result, error) {
	prompt := fmt.Sprintf(class.prompt, item.What, item.How, item.Why)
	text, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		b.log.Warn("content generation failed", "item", item.ID, "type", item.Type, "error", err)
		return nil, nil
	}

	path, err := b.writeDeliverable(class.subdir, item, text)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path}, nil
}

// buildGeneric delegates to the build gateway when configured, and
// only on its absence or failure falls back to a single local
// generation written as one file.
func (b *Builder) buildGeneric(ctx context.Context, item items.Item) (*Result, error) {
	if b.gateway != nil {
		msg, err := b.gateway.submit(ctx, item)
		if err == nil {
			b.log.Info("build delegated to gateway", "item", item.ID)
			return &Result{Message: msg}, nil
		}
		b.log.Warn("build gateway failed", "item", item.ID, "error", err)
	}

	if !b.fallback {
		return nil, nil
	}

	prompt := fmt.Sprintf("Build the following as a single self-contained file.\nWhat: %s\nHow: %s\nWhy: %s\n\nRespond with the complete file content only.",
		item.What, item.How, item.Why)
	text, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		b.log.Warn("fallback build generation failed", "item", item.ID, "error", err)
		return nil, nil
	}

	path, err := b.writeDeliverable("builds", item, text)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path}, nil
}

// writeDeliverable writes one artifact into the class sub-directory
// and appends the manifest line for it.
func (b *Builder) writeDeliverable(subdir string, item items.Item, content string) (string, error) {
	dir := filepath.Join(b.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("builder: create %s dir: %w", subdir, err)
	}

	name := fmt.Sprintf("%s-%s.md", b.now().UTC().Format("2006-01-02"), sanitizeFilename(item.What))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("builder: write deliverable: %w", err)
	}

	if err := b.appendManifest(dir, item, name); err != nil {
		// Manifest failure degrades; the deliverable itself exists.
		b.log.Warn("manifest append failed", "dir", subdir, "error", err)
	}
	return path, nil
}

const manifestHeader = `# Deliverables Manifest

| DATE | OWNER | WHAT | FILE |
|------|-------|------|------|
`

// appendManifest adds one line to the class manifest, creating it with
// a header first. The manifest is append-only.
func (b *Builder) appendManifest(dir string, item items.Item, filename string) error {
	path := filepath.Join(dir, "manifest.md")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		if _, err := f.WriteString(manifestHeader); err != nil {
			return err
		}
	}
	line := fmt.Sprintf("| %s | %s | %s | `%s` |\n",
		b.now().UTC().Format("2006-01-02"), item.Owner, manifestCell(item.What), filename)
	_, err = f.WriteString(line)
	return err
}

func manifestCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "/")
	if len(s) > 80 {
		s = s[:79] + "…"
	}
	return strings.TrimSpace(s)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFilename slugs free text into a safe, bounded filename stem.
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeFilenameChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 48 {
		s = strings.Trim(s[:48], "-")
	}
	if s == "" {
		s = "deliverable"
	}
	return s
}
