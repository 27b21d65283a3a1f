package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/codalotl/autodoc/internal/config"
	"github.com/codalotl/autodoc/internal/docgen"
	"golang.org/x/term"
)

// runInit asks for a Groq API key and model name and records them in the working directory's .env, updating existing keys in place.
func runInit(env *environment) error {
	path := filepath.Join(env.dir, config.EnvFileName)
	_, statErr := os.Stat(path)
	exists := statErr == nil

	reader := bufio.NewReader(env.in)
	apiKey, err := promptSecret(env, reader, "Enter your Groq API key (leave blank to skip): ")
	if err != nil {
		return err
	}
	model, err := prompt(env.out, reader, fmt.Sprintf("Enter the Groq model name [%s]: ", docgen.GroqDefaultModel))
	if err != nil {
		return err
	}
	if model == "" {
		model = docgen.GroqDefaultModel
	}

	var updates []config.EnvUpdate
	if apiKey != "" {
		updates = append(updates, config.EnvUpdate{Key: "GROQ_API_KEY", Value: apiKey})
	}
	updates = append(updates, config.EnvUpdate{Key: "GROQ_MODEL_NAME", Value: model})

	if exists {
		fmt.Fprintf(env.out, "Updating existing %s\n", path)
	} else {
		fmt.Fprintf(env.out, "Creating %s\n", path)
	}
	changes, err := config.UpdateEnvFile(path, updates)
	if err != nil {
		return err
	}
	for _, c := range changes {
		if c.Updated {
			fmt.Fprintf(env.out, "  - Updated %s\n", c.Key)
		} else {
			fmt.Fprintf(env.out, "  - Added %s\n", c.Key)
		}
	}
	if apiKey == "" {
		fmt.Fprintln(env.out, "No API key entered; the groq strategy needs GROQ_API_KEY before it can run.")
	}
	return nil
}

// prompt writes question and reads one line. EOF after a partial line is accepted; EOF with no input yields "".
func prompt(out io.Writer, reader *bufio.Reader, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret is prompt with terminal echo disabled when input is an interactive terminal.
func promptSecret(env *environment, reader *bufio.Reader, question string) (string, error) {
	f, ok := env.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(env.out, reader, question)
	}
	fmt.Fprint(env.out, question)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(env.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
