//go:build !no_automation

package automation

import (
	"strings"
	"time"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/store"

	lua "github.com/yuin/gopher-lua"
)

// registerApplianceModule registers the `appliance` global table in a Lua state.
func registerApplianceModule(L *lua.LState, vm *scriptVM, e *Engine) {
	mod := L.NewTable()

	mod.RawSetString("on", L.NewFunction(func(L *lua.LState) int {
		return applianceOn(L, vm)
	}))

	mod.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		return applianceSet(L, e)
	}))

	mod.RawSetString("turn_on", L.NewFunction(func(L *lua.LState) int {
		return appliancePower(L, e, true)
	}))

	mod.RawSetString("turn_off", L.NewFunction(func(L *lua.LState) int {
		return appliancePower(L, e, false)
	}))

	mod.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		return applianceGet(L, e)
	}))

	mod.RawSetString("after", L.NewFunction(func(L *lua.LState) int {
		return applianceAfter(L, vm, e)
	}))

	mod.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		return applianceLog(L, e)
	}))

	mod.RawSetString("devices", L.NewFunction(func(L *lua.LState) int {
		return applianceDevices(L, e)
	}))

	L.SetGlobal("appliance", mod)
}

const maxHandlersPerScript = 100

// appliance.on(type, filter, callback)
func applianceOn(L *lua.LState, vm *scriptVM) int {
	eventType := L.CheckString(1)
	filterTable := L.CheckTable(2)
	fn := L.CheckFunction(3)

	h := luaEventHandler{
		eventType: eventType,
		fn:        fn,
	}

	if v := filterTable.RawGetString("device"); v != lua.LNil {
		h.device = v.String()
	}
	if v := filterTable.RawGetString("attr"); v != lua.LNil {
		h.attr = v.String()
	}

	vm.mu.Lock()
	if len(vm.handlers) >= maxHandlersPerScript {
		vm.mu.Unlock()
		L.RaiseError("too many handlers (max %d)", maxHandlersPerScript)
		return 0
	}
	vm.handlers = append(vm.handlers, h)
	vm.mu.Unlock()

	return 0
}

// appliance.set(id_or_name, attr, value)
func applianceSet(L *lua.LState, e *Engine) int {
	target := L.CheckString(1)
	attr := L.CheckString(2)
	value := luaToGo(L.Get(3))

	dev := resolveDevice(e, target)
	if dev == nil {
		e.logger.Warn("device not found", "target", target)
		return 0
	}

	if err := e.bridge.SetAttribute(dev.ID, attr, value); err != nil {
		e.logger.Error("script set attribute", "err", err, "target", target, "attr", attr)
	}
	return 0
}

// appliance.turn_on/turn_off(id_or_name)
func appliancePower(L *lua.LState, e *Engine, on bool) int {
	target := L.CheckString(1)
	dev := resolveDevice(e, target)
	if dev == nil {
		e.logger.Warn("device not found", "target", target)
		return 0
	}

	if err := e.bridge.SetAttribute(dev.ID, appliance.AttrPower, on); err != nil {
		e.logger.Error("script set power", "err", err, "target", target, "on", on)
	}
	return 0
}

// appliance.get(id_or_name, attr)
func applianceGet(L *lua.LState, e *Engine) int {
	target := L.CheckString(1)
	attr := L.CheckString(2)

	dev := resolveDevice(e, target)
	if dev == nil {
		L.Push(lua.LNil)
		return 1
	}

	state, err := e.bridge.DeviceState(dev.ID)
	if err != nil {
		// Device known but not running; fall back on the persisted snapshot.
		state = dev.State
	}
	if v, ok := state[attr]; ok {
		L.Push(goToLua(L, v))
		return 1
	}

	L.Push(lua.LNil)
	return 1
}

// appliance.after(seconds, callback) — delayed execution
func applianceAfter(L *lua.LState, vm *scriptVM, e *Engine) int {
	seconds := L.CheckNumber(1)
	fn := L.CheckFunction(2)

	go func() {
		timer := time.NewTimer(time.Duration(float64(seconds) * float64(time.Second)))
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-vm.ctx.Done():
			return
		}

		// Send callback execution to the VM's command channel
		select {
		case vm.commands <- func(L *lua.LState) {
			if err := L.CallByParam(lua.P{
				Fn:      fn,
				NRet:    0,
				Protect: true,
			}); err != nil {
				e.logger.Error("after callback error", "err", err)
			}
		}:
		default:
			e.logger.Warn("after: command channel full")
		}
	}()

	return 0
}

// appliance.log(msg)
func applianceLog(L *lua.LState, e *Engine) int {
	msg := L.CheckString(1)
	e.logger.Info("script log", "msg", msg)
	return 0
}

// appliance.devices() — returns a table of all devices
func applianceDevices(L *lua.LState, e *Engine) int {
	devices, err := e.bridge.Store().ListDevices()
	if err != nil {
		L.Push(L.NewTable())
		return 1
	}

	tbl := L.NewTable()
	for i, dev := range devices {
		d := L.NewTable()
		d.RawSetString("id", lua.LString(dev.ID))
		name := dev.FriendlyName
		if name == "" {
			name = appliance.TypeName(dev.Type) + " " + dev.ID
		}
		d.RawSetString("name", lua.LString(name))
		d.RawSetString("type", lua.LString(appliance.TypeName(dev.Type)))
		tbl.RawSetInt(i+1, d)
	}

	L.Push(tbl)
	return 1
}

// luaToGo converts a Lua value to a Go value suitable for SetAttribute.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	default:
		return v.String()
	}
}

// resolveDevice finds a device by id or friendly name.
func resolveDevice(e *Engine, target string) *store.Device {
	if dev, err := e.bridge.Store().GetDevice(target); err == nil {
		return dev
	}

	devices, err := e.bridge.Store().ListDevices()
	if err != nil {
		return nil
	}
	for _, dev := range devices {
		if strings.EqualFold(dev.FriendlyName, target) {
			return dev
		}
	}
	return nil
}
