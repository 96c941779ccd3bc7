// Package workflow turns parsed commands into engine rounds: it resolves the
// target language, picks agents, loads inputs from the store and writes the
// prompts.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"conclave/internal/command"
	"conclave/internal/criteria"
	"conclave/internal/engine"
	"conclave/internal/logging"
	"conclave/internal/outline"
	"conclave/internal/registry"
	"conclave/internal/store"
)

// ErrUnknownLanguage is returned when dev cannot resolve a target language.
var ErrUnknownLanguage = errors.New("could not determine target programming language")

// Documents is the read side of the artifact store.
type Documents interface {
	LoadAppMD() (string, bool, error)
	LoadAppMetadata() (store.Metadata, error)
	LoadFeatureSpec(sectionID string) (string, bool, error)
	LoadFeatureMetadata(sectionID string) (store.Metadata, error)
}

// AgentSource picks agents for a capability.
type AgentSource interface {
	Select(capability, language string, n int) ([]registry.Agent, error)
}

// Capability maps a round kind to the agent capability it needs.
func Capability(kind criteria.Kind) string {
	if kind == criteria.KindCode {
		return registry.CapImplementation
	}
	return registry.CapArchitecture
}

type Options struct {
	// Parallel is the number of agents per kind.
	Parallel map[criteria.Kind]int
	Timeout  time.Duration
	// Agents, when set, replaces registry selection.
	Agents []string
	Logger logging.Logger
}

type Planner struct {
	docs     Documents
	agents   AgentSource
	parallel map[criteria.Kind]int
	timeout  time.Duration
	override []string
	log      logging.Logger
	now      func() time.Time
}

func NewPlanner(docs Documents, agents AgentSource, opts Options) (*Planner, error) {
	if docs == nil {
		return nil, errors.New("document store is nil")
	}
	if agents == nil && len(opts.Agents) == 0 {
		return nil, errors.New("agent source is nil and no agents were given")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Planner{
		docs:     docs,
		agents:   agents,
		parallel: opts.Parallel,
		timeout:  opts.Timeout,
		override: opts.Agents,
		log:      log,
		now:      time.Now,
	}, nil
}

// Plan builds the round for cmd.
func (p *Planner) Plan(cmd command.Command) (engine.Round, error) {
	switch cmd.Kind {
	case criteria.KindDesign:
		return p.planDesign(cmd)
	case criteria.KindFeature:
		return p.planFeat(cmd)
	case criteria.KindCode:
		return p.planDev(cmd)
	default:
		return engine.Round{}, fmt.Errorf("%w: %s", command.ErrUnknownCommand, cmd.Kind)
	}
}

func (p *Planner) planDesign(cmd command.Command) (engine.Round, error) {
	if strings.TrimSpace(cmd.Description) == "" {
		return engine.Round{}, errors.New("design requires a description")
	}
	agents, err := p.pick(criteria.KindDesign, cmd.Language)
	if err != nil {
		return engine.Round{}, err
	}
	prompt := designPrompt(cmd.Description, cmd.Language)
	stamp := p.now().Unix()

	r := engine.Round{Kind: criteria.KindDesign, Language: cmd.Language, Command: cmd.String()}
	for i, a := range agents {
		r.Tasks = append(r.Tasks, engine.Task{
			WorkerID: a,
			Prompt:   prompt,
			ID:       fmt.Sprintf("design_%d_%d", i, stamp),
			Timeout:  p.timeout,
		})
	}
	return r, nil
}

func (p *Planner) planFeat(cmd command.Command) (engine.Round, error) {
	if len(cmd.Sections) == 0 {
		return engine.Round{}, errors.New("feat requires a section identifier")
	}
	sid := cmd.Sections[0]

	appMD, ok, err := p.docs.LoadAppMD()
	if err != nil {
		return engine.Round{}, fmt.Errorf("load app.md: %w", err)
	}
	var expected []string
	if ok {
		expected = outline.Expected(appMD, sid)
		p.log.Info("expected subsections", "section", sid, "sections", strings.Join(expected, ", "))
	} else {
		p.log.Warn("no app.md found, feature will be generated without structural constraints", "section", sid)
	}

	language := cmd.Language
	if language == "" {
		meta, err := p.docs.LoadAppMetadata()
		if err != nil {
			return engine.Round{}, fmt.Errorf("load app metadata: %w", err)
		}
		language = metaLanguage(meta)
	}

	agents, err := p.pick(criteria.KindFeature, language)
	if err != nil {
		return engine.Round{}, err
	}
	prompt := featPrompt(sid, appMD, language)
	stamp := p.now().Unix()

	r := engine.Round{
		Kind:      criteria.KindFeature,
		Language:  language,
		SectionID: sid,
		Expected:  expected,
		Command:   cmd.String(),
	}
	for i, a := range agents {
		t := engine.Task{
			WorkerID: a,
			Prompt:   prompt,
			ID:       fmt.Sprintf("feat_%s_%d_%d", sid, i, stamp),
			Timeout:  p.timeout,
		}
		if ok {
			t.InputFiles = map[string]string{"app.md": appMD}
		}
		r.Tasks = append(r.Tasks, t)
	}
	return r, nil
}

func (p *Planner) planDev(cmd command.Command) (engine.Round, error) {
	if len(cmd.Sections) == 0 {
		return engine.Round{}, errors.New("dev requires at least one section identifier")
	}

	inputs := map[string]string{}
	var specFiles, loaded []string
	for _, sid := range cmd.Sections {
		content, ok, err := p.docs.LoadFeatureSpec(sid)
		if err != nil {
			return engine.Round{}, fmt.Errorf("load feature spec %s: %w", sid, err)
		}
		if !ok {
			p.log.Warn("feature specification not found", "section", sid)
			continue
		}
		name := store.FeatureFileName(sid)
		inputs[name] = content
		specFiles = append(specFiles, name)
		loaded = append(loaded, sid)
	}
	if len(loaded) == 0 {
		return engine.Round{}, fmt.Errorf("no feature specifications found for %s", strings.Join(cmd.Sections, ", "))
	}

	language, err := p.devLanguage(cmd.Language, loaded)
	if err != nil {
		return engine.Round{}, err
	}

	agents, err := p.pick(criteria.KindCode, language)
	if err != nil {
		return engine.Round{}, err
	}
	prompt := devPrompt(specFiles, language)
	stamp := p.now().Unix()

	r := engine.Round{
		Kind:      criteria.KindCode,
		Language:  language,
		FeatSpecs: loaded,
		Command:   cmd.String(),
	}
	for i, a := range agents {
		files := make(map[string]string, len(inputs))
		for k, v := range inputs {
			files[k] = v
		}
		r.Tasks = append(r.Tasks, engine.Task{
			WorkerID:   a,
			Prompt:     prompt,
			ID:         fmt.Sprintf("dev_%d_%d", i, stamp),
			Timeout:    p.timeout,
			InputFiles: files,
		})
	}
	return r, nil
}

// devLanguage resolves the dev target: the explicit argument, then the first
// feature spec that recorded one, then the design.
func (p *Planner) devLanguage(explicit string, sections []string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, sid := range sections {
		meta, err := p.docs.LoadFeatureMetadata(sid)
		if err != nil {
			return "", fmt.Errorf("load feature metadata %s: %w", sid, err)
		}
		if l := metaLanguage(meta); l != "" {
			return l, nil
		}
	}
	meta, err := p.docs.LoadAppMetadata()
	if err != nil {
		return "", fmt.Errorf("load app metadata: %w", err)
	}
	if l := metaLanguage(meta); l != "" {
		return l, nil
	}
	return "", ErrUnknownLanguage
}

func metaLanguage(meta store.Metadata) string {
	l, _ := meta["language"].(string)
	return strings.ToLower(strings.TrimSpace(l))
}

func (p *Planner) pick(kind criteria.Kind, language string) ([]string, error) {
	if len(p.override) > 0 {
		return p.override, nil
	}
	agents, err := p.agents.Select(Capability(kind), language, p.parallel[kind])
	if err != nil {
		return nil, err
	}
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	p.log.Info("agents selected", "kind", kind, "language", language, "agents", strings.Join(names, ","))
	return names, nil
}
