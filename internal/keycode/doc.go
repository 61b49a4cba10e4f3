// Package keycode defines the logical keycodes the engine resolves physical
// key positions into.
//
// This package defines the fundamental types for representing keyboard output:
//
//   - Usage: a HID keyboard-page usage id (KC_A is 0x04)
//   - Mod: the eight HID modifier bits (left/right Ctrl, Shift, Alt, GUI)
//   - Keycode: a tagged value combining a Kind with usage, modifier, layer
//     and id operands
//
// # Keycode Specifications
//
// Keycodes are written the way QMK keymaps write them:
//
//   - Basic keys: "KC_A", "KC_ENTER", "KC_LSFT"
//   - Shifted keys: "S(KC_1)", "LCTL(KC_C)", "KC_EXLM"
//   - Dual-role keys: "LSFT_T(KC_D)", "MT(MOD_LCTL, KC_F)", "LT(LOWER, KC_SPC)"
//   - Layer keys: "MO(LOWER)", "TG(2)", "TO(BASE)", "DF(BASE)", "OSL(NAV)"
//   - Feature keys: "QK_LEAD", "TD(END_HOME)", "DM_REC1", "QK_LLCK", "SELWORD"
//
// Layer, tap-dance and custom names are resolved through Options.
package keycode
