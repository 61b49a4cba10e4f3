// Package lua runs custom keycode actions written in Lua.
//
// A keyboard file may name a Lua script and bind custom keycodes to global
// functions in it. The Runtime loads the script into a sandboxed gopher-lua
// state and implements engine.Scripter: when a bound key is pressed or
// released, the function is called with a boolean pressed argument.
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed, and every call runs
// under a timeout enforced through the state's context.
//
// # Keyboard API
//
// Scripts reach the keyboard through the global kb table:
//
//	kb.tap("LCTL(KC_C)")   -- tap a keycode
//	kb.send("hello")       -- type a string
//	kb.layer_on("ADJUST")  -- turn a layer on, by name or index
//	kb.layer_off(3)
//	kb.layer()             -- highest active layer index
//	kb.layer_name()        -- its name
//	kb.mods()              -- active modifiers, e.g. "LCTL|LSFT"
//	kb.log("message")
//
// Example:
//
//	function backlit(pressed)
//	  if pressed then kb.layer_on("ADJUST") else kb.layer_off("ADJUST") end
//	end
package lua
