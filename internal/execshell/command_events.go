package execshell

import (
	"fmt"
	"io"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// ConsoleEventObserver writes human-readable progress lines for command
// lifecycle events.
type ConsoleEventObserver struct {
	writer    io.Writer
	formatter CommandMessageFormatter
}

// NewConsoleEventObserver constructs an observer that writes progress lines
// to the provided writer.
func NewConsoleEventObserver(writer io.Writer) *ConsoleEventObserver {
	return &ConsoleEventObserver{writer: writer}
}

// CommandStarted prints the formatted start message.
func (observer *ConsoleEventObserver) CommandStarted(command ShellCommand) {
	fmt.Fprintln(observer.writer, observer.formatter.BuildStartedMessage(command))
}

// CommandCompleted prints a success or failure message depending on the exit code.
func (observer *ConsoleEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if result.ExitCode == 0 {
		fmt.Fprintln(observer.writer, observer.formatter.BuildSuccessMessage(command))
		return
	}
	fmt.Fprintln(observer.writer, observer.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed prints the formatted execution failure message.
func (observer *ConsoleEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	fmt.Fprintln(observer.writer, observer.formatter.BuildExecutionFailureMessage(command, failure))
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
