package systemd

// WatchTemplate returns the systemd unit for the tweakctl watch daemon.
// The unit runs as root so the watcher can snapshot system config files,
// but is otherwise locked down.
func WatchTemplate() string {
	return `[Unit]
Description=tweakctl configuration watcher
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=/usr/local/bin/tweakctl watch
Restart=on-failure
RestartSec=5
NoNewPrivileges=true
PrivateTmp=true
ProtectHome=read-only
ProtectKernelTunables=true
RestrictNamespaces=true
MemoryDenyWriteExecute=true
CPUQuota=20%
MemoryMax=128M
TasksMax=20

[Install]
WantedBy=multi-user.target
`
}

// TimerTemplate returns a systemd timer that triggers a scheduled
// checkpoint independently of the watch daemon.
func TimerTemplate() string {
	return `[Unit]
Description=tweakctl scheduled checkpoint

[Timer]
OnCalendar=daily
Persistent=true

[Install]
WantedBy=timers.target
`
}

// CheckpointServiceTemplate is the oneshot service the timer activates.
func CheckpointServiceTemplate() string {
	return `[Unit]
Description=tweakctl scheduled checkpoint

[Service]
Type=oneshot
ExecStart=/usr/local/bin/tweakctl checkpoint create --name scheduled
`
}
