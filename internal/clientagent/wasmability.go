package clientagent

import (
	"context"
	"fmt"

	extism "github.com/extism/go-sdk"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/storage"
)

// WasmAbilityConf describes one WASM-backed ability.
type WasmAbilityConf struct {
	Name        string
	Description string
	WasmPath    string
	Func        string // export name, default "handle"
}

func (c WasmAbilityConf) withDefaults() WasmAbilityConf {
	if c.Func == "" {
		c.Func = "handle"
	}
	return c
}

// WasmAbilityAgent exposes one or more abilities backed by WASM plugins
// loaded through Extism: the plugin receives the ability call's payload
// bytes as input, and its raw output bytes become the outcome payload. A
// non-zero WASM exit code is reported as the outcome error.
type WasmAbilityAgent struct {
	BaseAgent

	client  *api.Client
	plugins map[string]*loadedAbility
}

type loadedAbility struct {
	conf   WasmAbilityConf
	plugin *extism.Plugin
}

// NewWasmAbilityAgent loads each conf's WASM module and returns an agent
// ready to declare and serve all of them.
func NewWasmAbilityAgent(ctx context.Context, confs []WasmAbilityConf) (*WasmAbilityAgent, error) {
	plugins := make(map[string]*loadedAbility, len(confs))
	for _, conf := range confs {
		conf = conf.withDefaults()
		manifest := extism.Manifest{
			Wasm: []extism.Wasm{extism.WasmFile{Path: conf.WasmPath}},
		}
		plugin, err := extism.NewPlugin(ctx, manifest, extism.PluginConfig{EnableWasi: true}, nil)
		if err != nil {
			return nil, fmt.Errorf("load wasm ability %q: %w", conf.Name, err)
		}
		if !plugin.FunctionExists(conf.Func) {
			plugin.Close(ctx)
			return nil, fmt.Errorf("wasm ability %q: missing export %q", conf.Name, conf.Func)
		}
		plugins[conf.Name] = &loadedAbility{conf: conf, plugin: plugin}
	}
	return &WasmAbilityAgent{plugins: plugins}, nil
}

// Bind attaches the client this agent will speak through. Must be called
// before Runner.Start.
func (a *WasmAbilityAgent) Bind(client *api.Client) { a.client = client }

// Close releases every loaded WASM plugin.
func (a *WasmAbilityAgent) Close(ctx context.Context) {
	for _, lp := range a.plugins {
		lp.plugin.Close(ctx)
	}
}

func (a *WasmAbilityAgent) OnStart(ctx context.Context) error {
	abilities := make([]storage.Ability, 0, len(a.plugins))
	for _, lp := range a.plugins {
		abilities = append(abilities, storage.Ability{
			Name:        lp.conf.Name,
			Description: lp.conf.Description,
		})
	}
	if err := a.client.DeclareAbilities(ctx, abilities); err != nil {
		return fmt.Errorf("declare abilities: %w", err)
	}
	return nil
}

func (a *WasmAbilityAgent) OnSpaceMessage(context.Context, uint64, string) error { return nil }

func (a *WasmAbilityAgent) OnCallAbility(ctx context.Context, call *storage.CallAbility) error {
	lp, ok := a.plugins[call.Name]
	if !ok {
		return nil
	}

	exitCode, output, err := lp.plugin.Call(lp.conf.Func, []byte(call.Payload))
	if err != nil {
		return a.submit(ctx, call.CallAbilityID, "", fmt.Errorf("wasm call: %w", err))
	}
	if exitCode != 0 {
		return a.submit(ctx, call.CallAbilityID, "", fmt.Errorf("wasm exit code %d: %s", exitCode, string(output)))
	}
	return a.submit(ctx, call.CallAbilityID, string(output), nil)
}

func (a *WasmAbilityAgent) submit(ctx context.Context, callID uint64, payload string, callErr error) error {
	errMsg := ""
	if callErr != nil {
		errMsg = callErr.Error()
	}
	if err := a.client.SubmitOutcome(ctx, callID, payload, errMsg); err != nil {
		return fmt.Errorf("submit outcome: %w", err)
	}
	return nil
}
