package utils

import "fmt"

// GenerateAvatarURL returns a deterministic DiceBear avatar for a new
// account so the admin user list never renders empty portraits.
func GenerateAvatarURL(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", seed)
}
