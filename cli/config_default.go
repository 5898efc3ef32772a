package cli

// DefaultProfile reproduces the nmstate integration run. The project tree is
// the parent of the directory holding the testbox binary, and it must look
// like an nmstate checkout.
const DefaultProfile = `
[global]
project-dir = ..
project-marker = setup.py
project-marker = pyproject.toml
shell = /bin/bash -c
pull = missing
tty = auto

[container]
image = quay.io/nmstate/c9s-nmstate-dev
privileged = true
cgroupns = host
workspace = /workspace/nmstate

[mount "cgroup"]
source = /sys/fs/cgroup
target = /sys/fs/cgroup
read-only = true

[network "net0"]
interface = eth1

[network "net1"]
interface = eth2

[step "start-dbus"]
run = systemctl start dbus.socket

[step "networks"]
kind = networks

[step "flush"]
run = ip addr flush eth1 && ip addr flush eth2

[step "wait-networkmanager"]
run = until systemctl is-active -q NetworkManager; do sleep 1; done
timeout = 60s

[step "diagnostics"]
run = nmcli device; nmcli connection; ip route; cat /etc/resolv.conf; ping -c 1 github.com
policy = tolerated

[step "pyclean"]
kind = purge

[step "test"]
run = pip install . && pytest --log-level=DEBUG --durations=5 --cov libnmstate --cov nmstatectl --cov-report=html:htmlcov --cov-report=term tests/integration
append-args = true
`
