package knowledge

var defaultEntries = []Entry{
	{
		Name:     "password_reset",
		Keywords: []string{"password", "reset", "locked", "can't login"},
		Category: "Password Reset",
		Response: `Go to https://passwordreset.microsoftonline.com
1. Enter your work email
2. Complete verification
3. Create a new password (12+ chars, mixed case, numbers, special chars)`,
	},
	{
		Name:     "vpn_issues",
		Keywords: []string{"vpn", "remote", "connection"},
		Category: "VPN Access",
		Response: `VPN troubleshooting:
1. Check your internet connection
2. Restart the VPN client
3. Clear saved credentials and re-enter them
4. Run: ipconfig /flushdns (Windows) or sudo dscacheutil -flushcache (Mac)`,
	},
	{
		Name:     "teams_audio",
		Keywords: []string{"teams", "audio", "microphone", "can't hear"},
		Category: "Teams/Office 365",
		Response: `Teams audio fix:
1. Settings → Devices → Make a test call
2. Check the correct device is selected
3. Windows Settings → Privacy → Allow microphone access
4. Clear the cache: %appdata%\Microsoft\Teams\Cache`,
	},
	{
		Name:     "slow_computer",
		Keywords: []string{"slow", "performance", "freezing"},
		Category: "Hardware Issue",
		Response: `Performance fix:
1. Restart your computer
2. Check Windows Updates
3. Run Disk Cleanup (cleanmgr)
4. Task Manager → Startup → Disable unneeded programs`,
	},
}

// Default returns the built-in table.
func Default() *Base {
	b, err := New(defaultEntries)
	if err != nil {
		panic(err)
	}
	return b
}
