package domain

// Version represents Docker version information.
type Version struct {
	Version       string
	APIVersion    string
	MinAPIVersion string
	GitCommit     string
	GoVersion     string
	Os            string
	Arch          string
	KernelVersion string
}

// PingResponse represents the response from a ping.
type PingResponse struct {
	APIVersion   string
	OSType       string
	Experimental bool
}

// SystemInfo is the subset of daemon information the doctor checks report on.
type SystemInfo struct {
	ID              string
	Name            string
	ServerVersion   string
	OperatingSystem string
	KernelVersion   string
	CgroupDriver    string
	CgroupVersion   string
	Containers      int
	Images          int
	Warnings        []string
}
