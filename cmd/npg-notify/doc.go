// Command npg-notify queues and sends email notifications for ONT run
// events via a Porch task-queue server.
package main
