package registration

import "strings"

var phoneStripper = strings.NewReplacer(
	" ", "",
	"-", "",
	"(", "",
	")", "",
)

// NormalizePhone canonicalizes an Iranian phone number to the local
// 0-prefixed form. The prefix rewrites are checked in order and only
// the first match applies, so overlapping prefixes like "+98", "0098"
// and bare "98" each rewrite to a single leading zero.
func NormalizePhone(raw string) string {
	phone := phoneStripper.Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(phone, "+98"):
		phone = "0" + phone[len("+98"):]
	case strings.HasPrefix(phone, "0098"):
		phone = "0" + phone[len("0098"):]
	case strings.HasPrefix(phone, "98"):
		phone = "0" + phone[len("98"):]
	}
	if !strings.HasPrefix(phone, "0") {
		phone = "0" + phone
	}
	return phone
}
