package libmodel

// The built-in table covers the I/O and string-processing functions a program typically
// reaches external data through. Functions that read from the environment, files, the
// network, the clock or a randomness source return input-dependent data; pure string and
// conversion functions propagate the dependency of their arguments.

var det = Formula{Kind: Deterministic}
var inputDep = Formula{Kind: InputDependent}

func builtinModels() []Model {
	models := []Model{
		// Environment and process state
		{Name: "os.Getenv", Return: inputDep},
		{Name: "os.LookupEnv", Return: inputDep},
		{Name: "os.Environ", Return: inputDep},
		{Name: "os.Getwd", Return: inputDep},
		{Name: "os.Hostname", Return: inputDep},
		{Name: "os.Getpid", Return: inputDep},
		{Name: "os.UserHomeDir", Return: inputDep},

		// File and stream input
		{Name: "os.ReadFile", Return: inputDep},
		{Name: "os.Open", Return: inputDep},
		{Name: "os.OpenFile", Return: inputDep},
		{Name: "os.Stat", Return: inputDep},
		{Name: "os.ReadDir", Return: inputDep},
		{Name: "(*os.File).Read", Return: inputDep, OutArgs: map[int]Formula{1: inputDep}},
		{Name: "(*os.File).ReadAt", Return: inputDep, OutArgs: map[int]Formula{1: inputDep}},
		{Name: "io.ReadAll", Return: inputDep},
		{Name: "io.ReadFull", Return: inputDep, OutArgs: map[int]Formula{1: inputDep}},
		{Name: "bufio.NewReader", Return: DependsOnArgs(0)},
		{Name: "bufio.NewScanner", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Reader).ReadString", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Reader).ReadByte", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Reader).ReadLine", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Scanner).Scan", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Scanner).Text", Return: DependsOnArgs(0)},
		{Name: "(*bufio.Scanner).Bytes", Return: DependsOnArgs(0)},

		// Formatted input writes through its out-arguments
		{Name: "fmt.Scan", Return: inputDep, OutArgs: map[int]Formula{0: inputDep}},
		{Name: "fmt.Scanln", Return: inputDep, OutArgs: map[int]Formula{0: inputDep}},
		{Name: "fmt.Scanf", Return: inputDep, OutArgs: map[int]Formula{1: inputDep}},
		{Name: "fmt.Fscan", Return: inputDep, OutArgs: map[int]Formula{1: inputDep}},
		{Name: "fmt.Sscan", Return: DependsOnArgs(0), OutArgs: map[int]Formula{1: DependsOnArgs(0)}},
		{Name: "fmt.Sscanf", Return: DependsOnArgs(0), OutArgs: map[int]Formula{2: DependsOnArgs(0)}},

		// Clock and randomness
		{Name: "time.Now", Return: inputDep},
		{Name: "time.Since", Return: inputDep},
		{Name: "math/rand.Int", Return: inputDep},
		{Name: "math/rand.Intn", Return: inputDep},
		{Name: "math/rand.Float64", Return: inputDep},
		{Name: "crypto/rand.Read", Return: inputDep, OutArgs: map[int]Formula{0: inputDep}},

		// Formatted output: the results (byte count, error) are modeled as deterministic,
		// matching the C-library model for printf and friends.
		{Name: "fmt.Println", Return: det},
		{Name: "fmt.Print", Return: det},
		{Name: "fmt.Printf", Return: det},
		{Name: "fmt.Fprintf", Return: det},
		{Name: "fmt.Fprintln", Return: det},
		{Name: "os.Exit", Return: det},
		{Name: "(*os.File).Write", Return: det},
		{Name: "(*os.File).Close", Return: det},

		// String formatting propagates its arguments
		{Name: "fmt.Sprintf", Return: DependsOnArgs(0, 1)},
		{Name: "fmt.Sprint", Return: DependsOnArgs(0)},
		{Name: "fmt.Sprintln", Return: DependsOnArgs(0)},
		{Name: "fmt.Errorf", Return: DependsOnArgs(0, 1)},

		// strconv
		{Name: "strconv.Itoa", Return: DependsOnArgs(0)},
		{Name: "strconv.Atoi", Return: DependsOnArgs(0)},
		{Name: "strconv.FormatInt", Return: DependsOnArgs(0, 1)},
		{Name: "strconv.FormatFloat", Return: DependsOnArgs(0)},
		{Name: "strconv.ParseInt", Return: DependsOnArgs(0)},
		{Name: "strconv.ParseFloat", Return: DependsOnArgs(0)},
		{Name: "strconv.ParseBool", Return: DependsOnArgs(0)},
		{Name: "strconv.Quote", Return: DependsOnArgs(0)},
	}

	// The pure string-library functions all propagate every argument to the result.
	argPropagating := map[string]int{
		"strings.ToUpper":    1,
		"strings.ToLower":    1,
		"strings.TrimSpace":  1,
		"strings.Trim":       2,
		"strings.TrimPrefix": 2,
		"strings.TrimSuffix": 2,
		"strings.Split":      2,
		"strings.SplitN":     3,
		"strings.Join":       2,
		"strings.Contains":   2,
		"strings.HasPrefix":  2,
		"strings.HasSuffix":  2,
		"strings.Index":      2,
		"strings.LastIndex":  2,
		"strings.Repeat":     2,
		"strings.Replace":    4,
		"strings.ReplaceAll": 3,
		"strings.Fields":     1,
		"strings.EqualFold":  2,
		"strings.NewReader":  1,
		"strings.Count":      2,
		"bytes.ToUpper":      1,
		"bytes.ToLower":      1,
		"bytes.TrimSpace":    1,
		"bytes.Contains":     2,
		"bytes.Equal":        2,
		"bytes.Split":        2,
		"bytes.Join":         2,
		"bytes.NewBuffer":    1,
		"math.Abs":           1,
		"math.Sqrt":          1,
		"math.Floor":         1,
		"math.Ceil":          1,
		"math.Max":           2,
		"math.Min":           2,
		"math.Pow":           2,
	}
	for name, arity := range argPropagating {
		positions := make([]int, arity)
		for i := range positions {
			positions[i] = i
		}
		models = append(models, Model{Name: name, Return: DependsOnArgs(positions...)})
	}

	// In-place library mutations: the out-argument keeps its own dependency.
	models = append(models,
		Model{Name: "sort.Strings", Return: det, OutArgs: map[int]Formula{0: DependsOnArgs(0)}},
		Model{Name: "sort.Ints", Return: det, OutArgs: map[int]Formula{0: DependsOnArgs(0)}},
		Model{Name: "sort.Slice", Return: det, OutArgs: map[int]Formula{0: DependsOnArgs(0)}},
	)

	return models
}
