package process

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	WorkerBinary  = "picbridge-worker"
	WorkerCommand = "worker"
)

// Runtime is the resolved command line of the worker executable.
type Runtime struct {
	Path string
	Args []string
}

type finder struct {
	stat       func(path string) (os.FileInfo, error)
	lookPath   func(file string) (string, error)
	executable func() (string, error)
}

var systemFinder = finder{stat: os.Stat, lookPath: exec.LookPath, executable: os.Executable}

// ResolveRuntime finds the worker executable. A configured command that can be found wins; otherwise a dedicated
// worker binary is searched next to this executable, in ./bin and in the usual install prefixes, and then this
// executable is started in worker mode. When none of them exists the bare binary name is returned and starting
// the worker fails at launch time.
func ResolveRuntime(command string, args []string) Runtime {
	return systemFinder.resolve(command, args)
}

var installDirs = []string{"/usr/local/bin", "/usr/bin", "/opt/picbridge/bin"}

func (f finder) resolve(command string, args []string) Runtime {
	if command != "" {
		path, err := f.lookPath(command)
		if err == nil {
			log.Debug().Str("path", path).Strs("args", args).Msg("using configured worker")
			return Runtime{Path: path, Args: args}
		}
		log.Debug().Err(err).Str("command", command).Msg("configured worker not found")
	}

	self, selfErr := f.executable()

	var candidates []string
	if selfErr == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(self), WorkerBinary))
	}
	candidates = append(candidates, filepath.Join(".", "bin", WorkerBinary))
	for _, dir := range installDirs {
		candidates = append(candidates, filepath.Join(dir, WorkerBinary))
	}

	for _, candidate := range candidates {
		info, err := f.stat(candidate)
		if err != nil || info.IsDir() {
			log.Debug().Str("path", candidate).Msg("worker binary not found")
			continue
		}

		log.Debug().Str("path", candidate).Msg("worker binary found")
		return Runtime{Path: candidate, Args: args}
	}

	if selfErr == nil {
		log.Debug().Str("path", self).Msg("running worker from own executable")
		return Runtime{Path: self, Args: append([]string{WorkerCommand}, args...)}
	}

	log.Debug().Str("command", WorkerBinary).Msg("no worker binary found, using bare name")
	return Runtime{Path: WorkerBinary, Args: args}
}
